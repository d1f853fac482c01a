// Package recorder persists simulation run observations: one Run row per
// simulation plus an ordered Step row per mutation. Backends mirror the
// genome-side contract discipline: one interface, interchangeable memory,
// sqlite and postgres implementations selected at open time.
package recorder

import (
	"context"
	"errors"
	"time"
)

// Driver identifies a concrete recorder backend.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// ErrRunNotFound is returned by GetRun for an unknown run identifier.
var ErrRunNotFound = errors.New("recorder: run not found")

// Run describes one simulation run. FinishRun overwrites the row written by
// BeginRun with the completed fields filled in.
type Run struct {
	ID          string    `json:"id"`
	GenomeKind  string    `json:"genome_kind"`
	InitialSize int       `json:"initial_size"`
	Seed        int64     `json:"seed"`
	Steps       int       `json:"steps"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at,omitempty"`
	FinalLength int       `json:"final_length,omitempty"`
	FinalRender string    `json:"final_render,omitempty"`
	ActiveTEs   []int     `json:"active_tes,omitempty"`
}

// Step is one recorded mutation within a run.
type Step struct {
	RunID        string `json:"run_id"`
	Step         int    `json:"step"`
	Op           string `json:"op"`
	TEID         int    `json:"te_id,omitempty"`
	NewTEID      int    `json:"new_te_id,omitempty"`
	GenomeLength int    `json:"genome_length"`
	ActiveCount  int    `json:"active_count"`
	Render       string `json:"render,omitempty"`
}

// Recorder is the run-recording contract. Implementations are safe for use
// by a single simulation at a time; they synchronize internally only to
// protect reads issued while a run is in flight.
type Recorder interface {
	BeginRun(ctx context.Context, run Run) error
	RecordStep(ctx context.Context, step Step) error
	FinishRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, []Step, error)
	ListRuns(ctx context.Context) ([]Run, error)
	Close() error
}
