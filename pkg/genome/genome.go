// Package genome defines the contract for a circular genomic sequence that
// hosts transposable elements (TEs): movable, identified runs of sites that
// can be inserted, copied, and deactivated in place. Two interchangeable
// backing representations implement the contract; callers select one at
// construction time and thereafter use only the operations declared here.
package genome

import "errors"

// Site markers used by Render. One character per site, position 0 first.
const (
	MarkerEmpty    byte = '-' // site belongs to no TE
	MarkerActive   byte = 'A' // site belongs to an active TE
	MarkerDisabled byte = 'x' // site belongs to a disabled TE
)

var (
	// ErrInvalidLength is returned when an insertion requests a
	// non-positive element length.
	ErrInvalidLength = errors.New("genome: element length must be positive")
	// ErrEmptyGenome is returned when position arithmetic is impossible
	// because the genome holds no sites.
	ErrEmptyGenome = errors.New("genome: genome has no sites")
)

// Genome is the circular-sequence contract shared by all representations.
//
// A genome instance is single-owner: no operation may run concurrently with
// another on the same instance. Implementations do not lock internally.
//
// TE identifiers are positive, monotonically increasing, assigned once per
// successful insertion starting at 1, and never reused. A TE is created
// active and transitions to disabled at most once, either explicitly via
// DisableTE or implicitly when a later insertion lands on one of its sites.
// Disabled TEs are never physically removed; their sites render as 'x'.
type Genome interface {
	// InsertTE inserts length newly active sites for a fresh TE
	// identifier at pos, interpreted modulo the current genome length.
	// The site previously at the resolved position and everything after
	// it shift later by length. If that site belongs to an active TE,
	// the entire TE is disabled before the new material is spliced in.
	// Returns the new identifier. Fails only for length < 1 or a genome
	// with no sites.
	InsertTE(pos, length int) (int, error)

	// CopyTE duplicates the active TE te at (start + offset) modulo the
	// current genome length, where start is the TE's current first
	// position. Negative offsets wrap to the high end of the sequence.
	// If te is unknown or disabled this is a no-op returning id 0 and a
	// nil error.
	CopyTE(te, offset int) (int, error)

	// DisableTE marks every site of the active TE te disabled. Unknown
	// or already-disabled identifiers are a no-op.
	DisableTE(te int)

	// ActiveTEs returns the identifiers of currently active TEs in
	// ascending order, each exactly once.
	ActiveTEs() []int

	// Len returns the current number of sites.
	Len() int

	// Render returns one marker character per site in position order
	// starting at index 0, alphabet {'-', 'A', 'x'}.
	Render() string
}

// NormalizePos maps pos onto [0, n) using floored modulo, so negative
// positions wrap to the high end of the sequence. n must be positive.
func NormalizePos(pos, n int) int {
	p := pos % n
	if p < 0 {
		p += n
	}
	return p
}
