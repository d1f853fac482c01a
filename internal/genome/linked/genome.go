// Package linked implements the genome contract on a circular doubly-linked
// node chain. Each node is one site carrying its own marker and owning TE
// identifier. Splicing a run of nodes is O(run length); locating a position
// is a walk from the head anchor.
//
// The chain is supplemented by three incrementally maintained structures
// that the naive pointer-walking design would otherwise recompute by full
// traversal: a site counter for Len, a monotonic next-identifier counter,
// and an identifier-to-first-node index used by disable and copy.
package linked

import (
	"sort"

	"tesim/pkg/genome"
)

// Compile-time contract assertion.
var _ genome.Genome = (*Genome)(nil)

// node is a single site in the circular chain. te is zero for empty sites.
type node struct {
	prev, next *node
	marker     byte
	te         int
}

// Genome is the linked representation. Not safe for concurrent use; a
// genome instance has a single owner.
type Genome struct {
	head   *node // anchor: logical position 0
	length int
	nextID int
	// first node of each TE's run, retained after disabling for
	// identifier bookkeeping.
	runs map[int]*node
}

// New returns a linked genome of n empty sites. The chain always holds at
// least one node, so n must be positive.
func New(n int) (*Genome, error) {
	if n < 1 {
		return nil, genome.ErrEmptyGenome
	}
	head := &node{marker: genome.MarkerEmpty}
	prev := head
	for i := 1; i < n; i++ {
		ln := &node{prev: prev, marker: genome.MarkerEmpty}
		prev.next = ln
		prev = ln
	}
	prev.next = head
	head.prev = prev
	return &Genome{head: head, length: n, nextID: 1, runs: make(map[int]*node)}, nil
}

// InsertTE splices a run of length active nodes in front of the node at the
// resolved position; that node and everything after it shift later. An
// active TE occupying the resolved site is disabled first. Inserting at
// position 0 re-anchors the head so the new run renders at index 0.
func (g *Genome) InsertTE(pos, length int) (int, error) {
	if length < 1 {
		return 0, genome.ErrInvalidLength
	}
	p := genome.NormalizePos(pos, g.length)
	target := g.nodeAt(p)

	if target.marker == genome.MarkerActive {
		g.DisableTE(target.te)
	}

	id := g.nextID
	g.nextID++

	first := &node{marker: genome.MarkerActive, te: id}
	last := first
	for i := 1; i < length; i++ {
		ln := &node{prev: last, marker: genome.MarkerActive, te: id}
		last.next = ln
		last = ln
	}

	before := target.prev
	before.next = first
	first.prev = before
	last.next = target
	target.prev = last

	if p == 0 {
		g.head = first
	}
	g.length += length
	g.runs[id] = first
	return id, nil
}

// CopyTE duplicates an active TE at its current start plus offset, modulo
// the pre-insertion genome length. Unknown or disabled identifiers are a
// no-op.
func (g *Genome) CopyTE(te, offset int) (int, error) {
	first, ok := g.runs[te]
	if !ok || first.marker != genome.MarkerActive {
		return 0, nil
	}
	start := g.offsetOf(first)
	length := g.runLen(te)
	target := genome.NormalizePos(start+offset, g.length)
	return g.InsertTE(target, length)
}

// DisableTE marks every node of the TE's run disabled. An active run is
// always contiguous (an insertion through it would have disabled it first),
// so the walk covers exactly the TE's own sites.
func (g *Genome) DisableTE(te int) {
	first, ok := g.runs[te]
	if !ok || first.marker != genome.MarkerActive {
		return
	}
	for ln := first; ln.te == te; ln = ln.next {
		ln.marker = genome.MarkerDisabled
	}
}

// ActiveTEs returns active identifiers in ascending order.
func (g *Genome) ActiveTEs() []int {
	ids := make([]int, 0, len(g.runs))
	for id, first := range g.runs {
		if first.marker == genome.MarkerActive {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Len returns the maintained site counter.
func (g *Genome) Len() int { return g.length }

// Render walks the chain once from the head, one marker per node.
func (g *Genome) Render() string {
	out := make([]byte, 0, g.length)
	ln := g.head
	for i := 0; i < g.length; i++ {
		out = append(out, ln.marker)
		ln = ln.next
	}
	return string(out)
}

// nodeAt walks p steps forward from the head. p must be in [0, length).
func (g *Genome) nodeAt(p int) *node {
	ln := g.head
	for i := 0; i < p; i++ {
		ln = ln.next
	}
	return ln
}

// offsetOf returns the logical position of target, counting forward from
// the head.
func (g *Genome) offsetOf(target *node) int {
	ln := g.head
	for i := 0; i < g.length; i++ {
		if ln == target {
			return i
		}
		ln = ln.next
	}
	// Unreachable while the run index and chain agree; a miss here is a
	// structural bug, not a caller error.
	panic("linked: node not reachable from head")
}

// runLen counts the contiguous run of nodes owned by te starting at its
// first node.
func (g *Genome) runLen(te int) int {
	n := 0
	for ln := g.runs[te]; ln.te == te; ln = ln.next {
		n++
	}
	return n
}
