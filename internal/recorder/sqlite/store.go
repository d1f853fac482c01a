// Package sqlite persists simulation runs to an embedded sqlite file.
// Run and step rows carry their payload as JSON blobs; the schema only
// materializes the keys needed for ordering and lookup.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tesim/internal/recorder"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion.
var _ recorder.Recorder = (*Store)(nil)

// Store is a sqlite-backed recorder.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the sqlite file at path and ensures
// the run/step tables exist. An empty path defaults to ./tesim.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "tesim.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS steps (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (run_id, step)
	)`); err != nil {
		return nil, fmt.Errorf("create steps table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// BeginRun inserts the initial run row.
func (s *Store) BeginRun(ctx context.Context, run recorder.Run) error {
	return s.upsertRun(ctx, run)
}

// FinishRun overwrites the run row with the completed fields.
func (s *Store) FinishRun(ctx context.Context, run recorder.Run) error {
	return s.upsertRun(ctx, run)
}

func (s *Store) upsertRun(ctx context.Context, run recorder.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `INSERT INTO runs (id, started_at, payload) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET started_at = excluded.started_at, payload = excluded.payload`,
		run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), payload)
	if err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	return nil
}

// RecordStep inserts one step row.
func (s *Store) RecordStep(ctx context.Context, step recorder.Step) error {
	payload, err := json.Marshal(step)
	if err != nil {
		return fmt.Errorf("encode step: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO steps (run_id, step, payload) VALUES (?, ?, ?)`,
		step.RunID, step.Step, payload); err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return nil
}

// GetRun loads a run and its steps in step order.
func (s *Store) GetRun(ctx context.Context, id string) (recorder.Run, []recorder.Step, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return recorder.Run{}, nil, recorder.ErrRunNotFound
	}
	if err != nil {
		return recorder.Run{}, nil, fmt.Errorf("select run: %w", err)
	}
	var run recorder.Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return recorder.Run{}, nil, fmt.Errorf("decode run: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM steps WHERE run_id = ? ORDER BY step`, id)
	if err != nil {
		return recorder.Run{}, nil, fmt.Errorf("select steps: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var steps []recorder.Step
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return recorder.Run{}, nil, fmt.Errorf("scan step: %w", err)
		}
		var step recorder.Step
		if err := json.Unmarshal(raw, &step); err != nil {
			return recorder.Run{}, nil, fmt.Errorf("decode step: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return recorder.Run{}, nil, fmt.Errorf("iterate steps: %w", err)
	}
	return run, steps, nil
}

// ListRuns returns all runs ordered by start time.
func (s *Store) ListRuns(ctx context.Context) ([]recorder.Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []recorder.Run
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var run recorder.Run
		if err := json.Unmarshal(raw, &run); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
