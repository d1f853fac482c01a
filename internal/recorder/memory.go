package recorder

import (
	"context"
	"sort"
	"sync"
)

// Compile-time contract assertion.
var _ Recorder = (*Memory)(nil)

// Memory is an in-memory recorder for tests and ephemeral runs.
type Memory struct {
	mu    sync.RWMutex
	runs  map[string]Run
	steps map[string][]Step
}

// NewMemory returns an empty in-memory recorder.
func NewMemory() *Memory {
	return &Memory{runs: make(map[string]Run), steps: make(map[string][]Step)}
}

// BeginRun stores the initial run row.
func (m *Memory) BeginRun(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

// RecordStep appends a step to its run.
func (m *Memory) RecordStep(_ context.Context, step Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[step.RunID] = append(m.steps[step.RunID], step)
	return nil
}

// FinishRun overwrites the run row with the completed fields.
func (m *Memory) FinishRun(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

// GetRun returns the run and its steps in recorded order.
func (m *Memory) GetRun(_ context.Context, id string) (Run, []Step, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return Run{}, nil, ErrRunNotFound
	}
	steps := make([]Step, len(m.steps[id]))
	copy(steps, m.steps[id])
	return run, steps, nil
}

// ListRuns returns all runs ordered by start time, then identifier.
func (m *Memory) ListRuns(_ context.Context) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Run, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Close is a no-op for the memory backend.
func (m *Memory) Close() error { return nil }
