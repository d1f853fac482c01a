package genome

// Kind identifies a concrete genome representation.
type Kind string

const (
	// KindBuffer is the contiguous marker-buffer representation.
	KindBuffer Kind = "buffer"
	// KindLinked is the circular doubly-linked node representation.
	KindLinked Kind = "linked"
)
