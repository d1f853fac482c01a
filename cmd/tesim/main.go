// Command tesim runs a transposable-element simulation over a circular
// genome and prints the resulting run summary. Recording and report
// archival backends are selected through TESIM_* environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"tesim/internal/core"
	"tesim/internal/sim"
	"tesim/pkg/genome"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tesim", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		kind       string
		size       int
		steps      int
		seed       int64
		teMin      int
		teMax      int
		copyOffset int
		record     bool
		archiveRun bool
		tracePath  string
		verbose    bool
	)
	fs.StringVar(&kind, "genome", string(genome.KindBuffer), "genome representation: buffer or linked")
	fs.IntVar(&size, "size", 20, "initial genome size in sites")
	fs.IntVar(&steps, "steps", 50, "number of mutations to apply")
	fs.Int64Var(&seed, "seed", 0, "random seed; 0 picks a time-based seed")
	fs.IntVar(&teMin, "te-min", 3, "minimum inserted TE length")
	fs.IntVar(&teMax, "te-max", 10, "maximum inserted TE length")
	fs.IntVar(&copyOffset, "copy-offset", 25, "maximum absolute copy offset")
	fs.BoolVar(&record, "record", false, "persist the run via the configured recorder backend")
	fs.BoolVar(&archiveRun, "archive", false, "store the run report via the configured archive backend")
	fs.StringVar(&tracePath, "trace", "", "write JSON trace events to this file")
	fs.BoolVar(&verbose, "v", false, "print the genome after every step")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cfg := sim.Config{
		Kind:          genome.Kind(kind),
		Size:          size,
		Steps:         steps,
		Seed:          seed,
		MinTELength:   teMin,
		MaxTELength:   teMax,
		MaxCopyOffset: copyOffset,
	}

	ctx := context.Background()
	opts, cleanup, err := buildOptions(ctx, record, archiveRun, tracePath)
	defer cleanup()
	if err != nil {
		fmt.Fprintf(stderr, "tesim: %v\n", err)
		return 1
	}

	runner, err := sim.NewRunner(cfg, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "tesim: %v\n", err)
		return 1
	}
	report, err := runner.Run(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "tesim: %v\n", err)
		return 1
	}

	if verbose {
		for _, obs := range report.Steps {
			fmt.Fprintf(stdout, "step %3d %-10s %s\n", obs.Step, obs.Op, obs.Render)
		}
	}
	printSummary(stdout, report.Summary)
	return 0
}

// buildOptions assembles runner options from CLI switches. The returned
// cleanup closes any opened backends and is safe to call on error.
func buildOptions(ctx context.Context, record, archiveRun bool, tracePath string) ([]sim.Option, func(), error) {
	var opts []sim.Option
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if record {
		rec, err := core.OpenRecorder()
		if err != nil {
			return nil, cleanup, fmt.Errorf("open recorder: %w", err)
		}
		closers = append(closers, func() { _ = rec.Close() })
		opts = append(opts, sim.WithRecorder(rec))
	}
	if archiveRun {
		arc, err := core.OpenArchive(ctx)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open archive: %w", err)
		}
		opts = append(opts, sim.WithArchive(arc))
	}
	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open trace file: %w", err)
		}
		closers = append(closers, func() { _ = f.Close() })
		opts = append(opts, sim.WithServiceOptions(core.WithTracer(core.NewJSONTracer(f))))
	}
	return opts, cleanup, nil
}

func printSummary(w io.Writer, s sim.RunSummary) {
	fmt.Fprintf(w, "run %s (%s, seed %d)\n", s.ID, s.Config.Kind, s.Config.Seed)
	fmt.Fprintf(w, "steps: %d inserts, %d copies (%d no-ops), %d disables\n",
		s.Inserts, s.Copies, s.CopyNoops, s.Disables)
	fmt.Fprintf(w, "final length: %d, active TEs: %v\n", s.FinalLength, s.FinalActive)
	fmt.Fprintf(w, "final genome: %s\n", s.FinalRender)
}
