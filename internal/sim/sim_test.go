package sim

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	archivememory "tesim/internal/archive/memory"
	"tesim/internal/recorder"
	"tesim/pkg/genome"
)

func TestRunnerRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{Size: -3},
		{Size: 5, Steps: -1},
		{Size: 5, MinTELength: 4, MaxTELength: 2},
		{Size: 5, InsertWeight: -1, CopyWeight: 1, DisableWeight: 1},
	}
	for _, cfg := range cases {
		if _, err := NewRunner(cfg); err == nil {
			t.Fatalf("expected config %+v to be rejected", cfg)
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := Config{Kind: genome.KindBuffer, Size: 30, Steps: 40, Seed: 17}
	first := mustRun(t, cfg)
	second := mustRun(t, cfg)

	if len(first.Steps) != len(second.Steps) {
		t.Fatalf("step counts differ: %d vs %d", len(first.Steps), len(second.Steps))
	}
	for i := range first.Steps {
		a, b := first.Steps[i], second.Steps[i]
		if a.Op != b.Op || a.TEID != b.TEID || a.NewTEID != b.NewTEID || a.Render != b.Render {
			t.Fatalf("step %d diverged: %+v vs %+v", i+1, a, b)
		}
	}
	if first.Summary.FinalRender != second.Summary.FinalRender {
		t.Fatalf("final renders diverged: %q vs %q", first.Summary.FinalRender, second.Summary.FinalRender)
	}
}

func TestRepresentationsProduceIdenticalRuns(t *testing.T) {
	buffered := mustRun(t, Config{Kind: genome.KindBuffer, Size: 25, Steps: 35, Seed: 99})
	linked := mustRun(t, Config{Kind: genome.KindLinked, Size: 25, Steps: 35, Seed: 99})

	for i := range buffered.Steps {
		if buffered.Steps[i].Render != linked.Steps[i].Render {
			t.Fatalf("step %d renders diverged:\nbuffer: %q\nlinked: %q",
				i+1, buffered.Steps[i].Render, linked.Steps[i].Render)
		}
	}
}

func TestRunGrowsGenomeAndCountsOps(t *testing.T) {
	cfg := Config{Size: 20, Steps: 60, Seed: 5}
	report := mustRun(t, cfg)

	s := report.Summary
	if s.Inserts+s.Copies+s.CopyNoops+s.Disables != cfg.Steps {
		t.Fatalf("op counts %d+%d+%d+%d do not sum to %d steps",
			s.Inserts, s.Copies, s.CopyNoops, s.Disables, cfg.Steps)
	}
	if s.Inserts == 0 {
		t.Fatal("expected at least one insertion over 60 steps")
	}
	if s.FinalLength <= cfg.Size {
		t.Fatalf("genome did not grow: final length %d, initial %d", s.FinalLength, cfg.Size)
	}
	if len(s.FinalRender) != s.FinalLength {
		t.Fatalf("final render length %d does not match final length %d", len(s.FinalRender), s.FinalLength)
	}
	if s.ID == "" {
		t.Fatal("run summary has no identifier")
	}
	if !s.EndedAt.After(s.StartedAt) && !s.EndedAt.Equal(s.StartedAt) {
		t.Fatalf("ended %v before started %v", s.EndedAt, s.StartedAt)
	}
}

func TestRunPersistsToRecorder(t *testing.T) {
	rec := recorder.NewMemory()
	runner, err := NewRunner(Config{Size: 15, Steps: 12, Seed: 3}, WithRecorder(rec))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	run, steps, err := rec.GetRun(context.Background(), report.Summary.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.FinalRender != report.Summary.FinalRender {
		t.Fatalf("recorded final render %q, report has %q", run.FinalRender, report.Summary.FinalRender)
	}
	if len(steps) != 12 {
		t.Fatalf("expected 12 recorded steps, got %d", len(steps))
	}
	for i, step := range steps {
		if step.Step != i+1 {
			t.Fatalf("step %d recorded out of order as %d", i+1, step.Step)
		}
	}
}

func TestRunArchivesReport(t *testing.T) {
	arc := archivememory.New()
	runner, err := NewRunner(Config{Size: 15, Steps: 8, Seed: 7}, WithArchive(arc))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	key := "runs/" + report.Summary.ID + ".json"
	info, rc, err := arc.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get archived report: %v", err)
	}
	defer rc.Close()
	if info.ContentType != "application/json" {
		t.Fatalf("archived content type %q", info.ContentType)
	}
	payload, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read archived report: %v", err)
	}
	var stored Report
	if err := json.Unmarshal(payload, &stored); err != nil {
		t.Fatalf("decode archived report: %v", err)
	}
	if stored.Summary.ID != report.Summary.ID {
		t.Fatalf("archived run %q, expected %q", stored.Summary.ID, report.Summary.ID)
	}
	if len(stored.Steps) != len(report.Steps) {
		t.Fatalf("archived %d steps, expected %d", len(stored.Steps), len(report.Steps))
	}
}

func TestRenderOnlyUsesSiteMarkers(t *testing.T) {
	report := mustRun(t, Config{Size: 10, Steps: 25, Seed: 11})
	for _, obs := range report.Steps {
		if strings.Trim(obs.Render, "-Ax") != "" {
			t.Fatalf("step %d render contains unexpected characters: %q", obs.Step, obs.Render)
		}
	}
}

func mustRun(t *testing.T, cfg Config) Report {
	t.Helper()
	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return report
}
