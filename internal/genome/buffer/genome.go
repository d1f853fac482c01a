// Package buffer implements the genome contract on a contiguous marker
// buffer: one byte per site plus an identifier-keyed span table. Insertions
// splice the buffer and shift every span whose start lies at or after the
// resolved index in the same pass.
package buffer

import (
	"sort"

	"tesim/pkg/genome"
)

// Compile-time contract assertion.
var _ genome.Genome = (*Genome)(nil)

// span is the inclusive index range a TE occupies. Spans of disabled TEs are
// retained for identifier bookkeeping; once a later insertion splits a
// disabled run the span is historical and the marker buffer alone is
// authoritative for rendering.
type span struct {
	start  int
	end    int
	active bool
}

func (s span) length() int { return s.end - s.start + 1 }

// Genome is the contiguous-storage representation. Not safe for concurrent
// use; a genome instance has a single owner.
type Genome struct {
	sites  []byte
	spans  map[int]span
	nextID int
}

// New returns a buffer genome of n empty sites. n may be zero; a zero-length
// genome rejects insertions until it is discarded, since position arithmetic
// is undefined on it.
func New(n int) *Genome {
	if n < 0 {
		n = 0
	}
	sites := make([]byte, n)
	for i := range sites {
		sites[i] = genome.MarkerEmpty
	}
	return &Genome{sites: sites, spans: make(map[int]span), nextID: 1}
}

// InsertTE implements the contract insertion: resolve pos modulo the current
// length, disable any active TE occupying the resolved site, splice in a run
// of active sites, and shift every span starting at or after the resolved
// index.
func (g *Genome) InsertTE(pos, length int) (int, error) {
	if length < 1 {
		return 0, genome.ErrInvalidLength
	}
	n := len(g.sites)
	if n == 0 {
		return 0, genome.ErrEmptyGenome
	}
	p := genome.NormalizePos(pos, n)

	// Collision check inspects the site at the resolved position before
	// any mutation.
	if g.sites[p] == genome.MarkerActive {
		if id, ok := g.activeTEAt(p); ok {
			g.DisableTE(id)
		}
	}

	g.sites = append(g.sites, make([]byte, length)...)
	copy(g.sites[p+length:], g.sites[p:])
	for i := p; i < p+length; i++ {
		g.sites[i] = genome.MarkerActive
	}

	// Shift all stored spans, active or not, that start at or after the
	// insertion point.
	for id, s := range g.spans {
		if s.start >= p {
			s.start += length
			s.end += length
			g.spans[id] = s
		}
	}

	id := g.nextID
	g.nextID++
	g.spans[id] = span{start: p, end: p + length - 1, active: true}
	return id, nil
}

// CopyTE duplicates an active TE at its start plus offset, modulo the
// pre-insertion genome length. Unknown or disabled identifiers are a no-op.
func (g *Genome) CopyTE(te, offset int) (int, error) {
	s, ok := g.spans[te]
	if !ok || !s.active {
		return 0, nil
	}
	target := genome.NormalizePos(s.start+offset, len(g.sites))
	return g.InsertTE(target, s.length())
}

// DisableTE marks the TE's entire span disabled. Idempotent; unknown
// identifiers are ignored.
func (g *Genome) DisableTE(te int) {
	s, ok := g.spans[te]
	if !ok || !s.active {
		return
	}
	for i := s.start; i <= s.end; i++ {
		g.sites[i] = genome.MarkerDisabled
	}
	s.active = false
	g.spans[te] = s
}

// ActiveTEs returns active identifiers in ascending order.
func (g *Genome) ActiveTEs() []int {
	ids := make([]int, 0, len(g.spans))
	for id, s := range g.spans {
		if s.active {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Len returns the current site count.
func (g *Genome) Len() int { return len(g.sites) }

// Render returns the marker string, position 0 first.
func (g *Genome) Render() string { return string(g.sites) }

// activeTEAt finds the active TE whose span contains index p.
func (g *Genome) activeTEAt(p int) (int, bool) {
	for id, s := range g.spans {
		if s.active && s.start <= p && p <= s.end {
			return id, true
		}
	}
	return 0, false
}
