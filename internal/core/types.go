package core

import "tesim/pkg/genome"

type (
	Genome = genome.Genome
	Kind   = genome.Kind
)

const (
	KindBuffer = genome.KindBuffer
	KindLinked = genome.KindLinked
)

var (
	ErrInvalidLength = genome.ErrInvalidLength
	ErrEmptyGenome   = genome.ErrEmptyGenome
)
