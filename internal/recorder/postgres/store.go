// Package postgres persists simulation runs to a PostgreSQL server using the
// same run/step row shape as the sqlite backend, with JSONB payloads.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"tesim/internal/recorder"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion.
var _ recorder.Recorder = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/tesim?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the connection factory for tests and returns a
// restore function.
func OverrideSQLOpen(fn func(driver, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}

// Store is a postgres-backed recorder.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a postgres-backed recorder using the provided DSN (falls
// back to defaultDSN) and ensures the run/step tables exist.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureTables(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func ensureTables(ctx context.Context, db *sql.DB) error {
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			payload JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS steps (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			payload JSONB NOT NULL,
			PRIMARY KEY (run_id, step)
		)`,
	} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure tables: %w", err)
		}
	}
	return nil
}

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
	_, err = s.db.ExecContext(ctx, `INSERT INTO runs (id, started_at, payload) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET started_at = EXCLUDED.started_at, payload = EXCLUDED.payload`,
		run.ID, run.StartedAt.UTC(), payload)
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
	if _, err := s.db.ExecContext(ctx, `INSERT INTO steps (run_id, step, payload) VALUES ($1, $2, $3)`,
		step.RunID, step.Step, payload); err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return nil
}

// GetRun loads a run and its steps in step order.
func (s *Store) GetRun(ctx context.Context, id string) (recorder.Run, []recorder.Step, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = $1`, id).Scan(&payload)
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
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM steps WHERE run_id = $1 ORDER BY step`, id)
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
