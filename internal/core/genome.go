package core

import (
	"fmt"
	"os"
	"strconv"

	"tesim/internal/genome/buffer"
	"tesim/internal/genome/linked"
	"tesim/pkg/genome"
)

// NewGenome constructs a genome backed by the requested representation.
func NewGenome(kind genome.Kind, n int) (genome.Genome, error) {
	switch kind {
	case genome.KindBuffer:
		return buffer.New(n), nil
	case genome.KindLinked:
		return linked.New(n)
	default:
		return nil, fmt.Errorf("unknown genome kind %s", kind)
	}
}

// OpenGenome selects a representation using environment variables.
// Defaults to the buffer representation when unset.
//
//	TESIM_GENOME_KIND: buffer|linked (default buffer)
//	TESIM_GENOME_SIZE: initial site count (default 20)
func OpenGenome() (genome.Genome, error) {
	kind := os.Getenv("TESIM_GENOME_KIND")
	if kind == "" {
		kind = string(genome.KindBuffer)
	}
	n := 20
	if raw := os.Getenv("TESIM_GENOME_SIZE"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse TESIM_GENOME_SIZE: %w", err)
		}
		n = v
	}
	return NewGenome(genome.Kind(kind), n)
}
