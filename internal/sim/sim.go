// Package sim drives a genome through a seeded random sequence of TE
// insertions, copies, and deactivations, collecting per-step observations
// and a run summary. Runs are reproducible: the same configuration and seed
// always produce the same observation stream.
package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"tesim/internal/archive"
	"tesim/internal/core"
	"tesim/internal/recorder"
	"tesim/pkg/genome"
)

// Operation names used in observations and recorder rows.
const (
	OpInsert  = "insert_te"
	OpCopy    = "copy_te"
	OpDisable = "disable_te"
)

// Config parameterizes one simulation run.
type Config struct {
	Kind genome.Kind `json:"genome_kind"`
	Size int         `json:"initial_size"`
	// Steps is the number of mutations to apply.
	Steps int   `json:"steps"`
	Seed  int64 `json:"seed"`
	// Inserted TE lengths are drawn uniformly from [MinTELength, MaxTELength].
	MinTELength int `json:"min_te_length"`
	MaxTELength int `json:"max_te_length"`
	// Copy offsets are drawn uniformly from [-MaxCopyOffset, MaxCopyOffset].
	MaxCopyOffset int `json:"max_copy_offset"`
	// Relative operation weights. A copy or disable drawn while no TE is
	// active falls back to an insertion so every step mutates the genome.
	InsertWeight  int `json:"insert_weight"`
	CopyWeight    int `json:"copy_weight"`
	DisableWeight int `json:"disable_weight"`
}

func (c Config) withDefaults() Config {
	if c.Kind == "" {
		c.Kind = genome.KindBuffer
	}
	if c.Size == 0 {
		c.Size = 20
	}
	if c.Steps == 0 {
		c.Steps = 50
	}
	if c.MinTELength == 0 {
		c.MinTELength = 3
	}
	if c.MaxTELength == 0 {
		c.MaxTELength = 10
	}
	if c.MaxCopyOffset == 0 {
		c.MaxCopyOffset = 25
	}
	if c.InsertWeight == 0 && c.CopyWeight == 0 && c.DisableWeight == 0 {
		c.InsertWeight, c.CopyWeight, c.DisableWeight = 5, 3, 2
	}
	return c
}

func (c Config) validate() error {
	if c.Size < 1 {
		return fmt.Errorf("sim: initial size must be positive, got %d", c.Size)
	}
	if c.Steps < 0 {
		return fmt.Errorf("sim: steps must be non-negative, got %d", c.Steps)
	}
	if c.MinTELength < 1 || c.MaxTELength < c.MinTELength {
		return fmt.Errorf("sim: bad TE length range [%d, %d]", c.MinTELength, c.MaxTELength)
	}
	if c.InsertWeight < 0 || c.CopyWeight < 0 || c.DisableWeight < 0 {
		return fmt.Errorf("sim: operation weights must be non-negative")
	}
	if c.InsertWeight+c.CopyWeight+c.DisableWeight == 0 {
		return fmt.Errorf("sim: at least one operation weight must be positive")
	}
	return nil
}

// StepObservation captures the genome state directly after one mutation.
type StepObservation struct {
	Step         int    `json:"step"`
	Op           string `json:"op"`
	TEID         int    `json:"te_id,omitempty"`
	NewTEID      int    `json:"new_te_id,omitempty"`
	GenomeLength int    `json:"genome_length"`
	ActiveCount  int    `json:"active_count"`
	Render       string `json:"render"`
}

// RunSummary aggregates one finished run.
type RunSummary struct {
	ID          string    `json:"id"`
	Config      Config    `json:"config"`
	Inserts     int       `json:"inserts"`
	Copies      int       `json:"copies"`
	CopyNoops   int       `json:"copy_noops"`
	Disables    int       `json:"disables"`
	FinalLength int       `json:"final_length"`
	FinalActive []int     `json:"final_active"`
	FinalRender string    `json:"final_render"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}

// Report is the full output of a run.
type Report struct {
	Summary RunSummary        `json:"summary"`
	Steps   []StepObservation `json:"steps"`
}

// JSON renders the report for archival.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Runner executes simulation runs. A Runner is single-use per Run call but
// may execute several runs sequentially; each run gets a fresh genome.
type Runner struct {
	cfg     Config
	rec     recorder.Recorder
	arc     archive.Store
	svcOpts []core.ServiceOption
	nowFn   func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder persists run and step rows to rec.
func WithRecorder(rec recorder.Recorder) Option {
	return func(r *Runner) { r.rec = rec }
}

// WithArchive stores the finished report as runs/<id>.json in arc.
func WithArchive(arc archive.Store) Option {
	return func(r *Runner) { r.arc = arc }
}

// WithServiceOptions forwards observability options to the genome service.
func WithServiceOptions(opts ...core.ServiceOption) Option {
	return func(r *Runner) { r.svcOpts = append(r.svcOpts, opts...) }
}

// NewRunner validates the configuration and returns a runner.
func NewRunner(cfg Config, opts ...Option) (*Runner, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	r := &Runner{cfg: cfg, nowFn: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes one simulation and returns its report.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	g, err := core.NewGenome(r.cfg.Kind, r.cfg.Size)
	if err != nil {
		return Report{}, fmt.Errorf("construct genome: %w", err)
	}
	svc := core.NewService(g, r.svcOpts...)
	rng := rand.New(rand.NewSource(r.cfg.Seed))

	summary := RunSummary{
		ID:        uuid.NewString(),
		Config:    r.cfg,
		StartedAt: r.nowFn(),
	}
	if r.rec != nil {
		if err := r.rec.BeginRun(ctx, r.runRow(summary)); err != nil {
			return Report{}, fmt.Errorf("begin run: %w", err)
		}
	}

	steps := make([]StepObservation, 0, r.cfg.Steps)
	for i := 1; i <= r.cfg.Steps; i++ {
		obs, err := r.step(ctx, svc, rng, i)
		if err != nil {
			return Report{}, fmt.Errorf("step %d: %w", i, err)
		}
		switch obs.Op {
		case OpInsert:
			summary.Inserts++
		case OpCopy:
			if obs.NewTEID == 0 {
				summary.CopyNoops++
			} else {
				summary.Copies++
			}
		case OpDisable:
			summary.Disables++
		}
		steps = append(steps, obs)
		if r.rec != nil {
			if err := r.rec.RecordStep(ctx, stepRow(summary.ID, obs)); err != nil {
				return Report{}, fmt.Errorf("record step %d: %w", i, err)
			}
		}
	}

	summary.FinalLength = svc.Length(ctx)
	summary.FinalActive = svc.ActiveTEs(ctx)
	summary.FinalRender = svc.Render(ctx)
	summary.EndedAt = r.nowFn()

	if r.rec != nil {
		if err := r.rec.FinishRun(ctx, r.runRow(summary)); err != nil {
			return Report{}, fmt.Errorf("finish run: %w", err)
		}
	}
	report := Report{Summary: summary, Steps: steps}
	if r.arc != nil {
		if err := r.archiveReport(ctx, report); err != nil {
			return Report{}, err
		}
	}
	return report, nil
}

// step applies one weighted random mutation. Copy and disable draws fall
// back to an insertion while no TE is active.
func (r *Runner) step(ctx context.Context, svc *core.Service, rng *rand.Rand, n int) (StepObservation, error) {
	op := r.drawOp(rng)
	active := svc.ActiveTEs(ctx)
	if len(active) == 0 && op != OpInsert {
		op = OpInsert
	}

	obs := StepObservation{Step: n, Op: op}
	switch op {
	case OpInsert:
		pos := rng.Intn(svc.Length(ctx))
		length := r.cfg.MinTELength + rng.Intn(r.cfg.MaxTELength-r.cfg.MinTELength+1)
		id, err := svc.InsertTE(ctx, pos, length)
		if err != nil {
			return StepObservation{}, err
		}
		obs.NewTEID = id
	case OpCopy:
		te := active[rng.Intn(len(active))]
		offset := rng.Intn(2*r.cfg.MaxCopyOffset+1) - r.cfg.MaxCopyOffset
		id, err := svc.CopyTE(ctx, te, offset)
		if err != nil {
			return StepObservation{}, err
		}
		obs.TEID = te
		obs.NewTEID = id
	case OpDisable:
		te := active[rng.Intn(len(active))]
		svc.DisableTE(ctx, te)
		obs.TEID = te
	}

	obs.GenomeLength = svc.Length(ctx)
	obs.ActiveCount = len(svc.ActiveTEs(ctx))
	obs.Render = svc.Render(ctx)
	return obs, nil
}

func (r *Runner) drawOp(rng *rand.Rand) string {
	total := r.cfg.InsertWeight + r.cfg.CopyWeight + r.cfg.DisableWeight
	draw := rng.Intn(total)
	if draw < r.cfg.InsertWeight {
		return OpInsert
	}
	if draw < r.cfg.InsertWeight+r.cfg.CopyWeight {
		return OpCopy
	}
	return OpDisable
}

func (r *Runner) runRow(s RunSummary) recorder.Run {
	return recorder.Run{
		ID:          s.ID,
		GenomeKind:  string(s.Config.Kind),
		InitialSize: s.Config.Size,
		Seed:        s.Config.Seed,
		Steps:       s.Config.Steps,
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
		FinalLength: s.FinalLength,
		FinalRender: s.FinalRender,
		ActiveTEs:   s.FinalActive,
	}
}

func stepRow(runID string, obs StepObservation) recorder.Step {
	return recorder.Step{
		RunID:        runID,
		Step:         obs.Step,
		Op:           obs.Op,
		TEID:         obs.TEID,
		NewTEID:      obs.NewTEID,
		GenomeLength: obs.GenomeLength,
		ActiveCount:  obs.ActiveCount,
		Render:       obs.Render,
	}
}

func (r *Runner) archiveReport(ctx context.Context, report Report) error {
	payload, err := report.JSON()
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	key := fmt.Sprintf("runs/%s.json", report.Summary.ID)
	_, err = r.arc.Put(ctx, key, bytes.NewReader(payload), archive.PutOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	return nil
}
