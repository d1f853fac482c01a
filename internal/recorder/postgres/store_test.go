package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"tesim/internal/recorder"
	"tesim/internal/recorder/postgres/testutil"
)

func newStubStore(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" {
			t.Fatalf("unexpected driver %q", driver)
		}
		return db, nil
	})
	t.Cleanup(restore)
	store, err := NewStore("postgres://stub/tesim")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, conn
}

func TestNewStoreEnsuresTables(t *testing.T) {
	_, conn := newStubStore(t)

	var created []string
	for _, q := range conn.Execs {
		if strings.HasPrefix(strings.TrimSpace(q), "CREATE TABLE") {
			created = append(created, q)
		}
	}
	if len(created) != 2 {
		t.Fatalf("expected runs and steps DDL, got %d statements", len(created))
	}
}

func TestNewStorePropagatesPingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()

	if _, err := NewStore(""); err == nil {
		t.Fatal("expected ping failure to surface")
	}
}

func TestRunRoundTrip(t *testing.T) {
	store, _ := newStubStore(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	run := recorder.Run{ID: "run-1", GenomeKind: "buffer", InitialSize: 20, Seed: 42, Steps: 2, StartedAt: started}
	if err := store.BeginRun(ctx, run); err != nil {
		t.Fatalf("begin run: %v", err)
	}
	for i := 1; i <= 2; i++ {
		step := recorder.Step{RunID: run.ID, Step: i, Op: "insert_te", NewTEID: i, GenomeLength: 20 + 5*i, ActiveCount: i}
		if err := store.RecordStep(ctx, step); err != nil {
			t.Fatalf("record step %d: %v", i, err)
		}
	}
	run.EndedAt = started.Add(time.Second)
	run.FinalLength = 30
	run.FinalRender = "-----AAAAA-----AAAAA----------"
	run.ActiveTEs = []int{1, 2}
	if err := store.FinishRun(ctx, run); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	got, steps, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.FinalRender != run.FinalRender || got.FinalLength != 30 {
		t.Fatalf("run row not overwritten by FinishRun: %+v", got)
	}
	if len(steps) != 2 || steps[0].Step != 1 || steps[1].Step != 2 {
		t.Fatalf("unexpected steps: %+v", steps)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" {
		t.Fatalf("unexpected run listing: %+v", runs)
	}
}

func TestGetRunUnknownID(t *testing.T) {
	store, _ := newStubStore(t)
	if _, _, err := store.GetRun(context.Background(), "missing"); !errors.Is(err, recorder.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRecordStepSurfacesExecFailure(t *testing.T) {
	store, conn := newStubStore(t)
	conn.FailExec = true
	err := store.RecordStep(context.Background(), recorder.Step{RunID: "r", Step: 1, Op: "insert_te"})
	if err == nil {
		t.Fatal("expected exec failure to surface")
	}
}
