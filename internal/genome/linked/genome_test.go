package linked

import (
	"errors"
	"strings"
	"testing"

	"tesim/pkg/genome"
)

func TestNewRequiresPositiveSize(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := New(n); !errors.Is(err, genome.ErrEmptyGenome) {
			t.Fatalf("New(%d): err = %v, want ErrEmptyGenome", n, err)
		}
	}
	g, err := New(1)
	if err != nil {
		t.Fatalf("New(1): %v", err)
	}
	if g.Len() != 1 || g.Render() != "-" {
		t.Fatalf("len=%d render=%q", g.Len(), g.Render())
	}
}

func TestChainIsCircular(t *testing.T) {
	g, _ := New(5)
	ln := g.head
	for i := 0; i < 5; i++ {
		if ln.next.prev != ln {
			t.Fatalf("broken back link at step %d", i)
		}
		ln = ln.next
	}
	if ln != g.head {
		t.Fatalf("walking Len() steps did not return to the head")
	}
}

func TestInsertTEMaintainsCountersAndRender(t *testing.T) {
	g, _ := New(10)
	id, err := g.InsertTE(6, 3)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id != 1 {
		t.Fatalf("id = %d, want 1", id)
	}
	if g.Len() != 13 {
		t.Fatalf("len = %d, want 13", g.Len())
	}
	if got := g.Render(); got != "------AAA----" {
		t.Fatalf("render = %q", got)
	}
}

func TestInsertTEAtHeadReanchors(t *testing.T) {
	g, _ := New(6)
	if _, err := g.InsertTE(0, 2); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := g.Render(); got != "AA------" {
		t.Fatalf("render = %q", got)
	}
	// Wrapped position equal to the length also resolves to index 0.
	if _, err := g.InsertTE(8, 1); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := g.Render(); got != "AAA------" {
		t.Fatalf("render = %q", got)
	}
}

func TestInsertTEInvalidLength(t *testing.T) {
	g, _ := New(4)
	if _, err := g.InsertTE(1, 0); !errors.Is(err, genome.ErrInvalidLength) {
		t.Fatalf("err = %v, want ErrInvalidLength", err)
	}
	if g.Len() != 4 {
		t.Fatalf("failed insert mutated the genome")
	}
}

func TestInsertCollisionDisablesWholeTE(t *testing.T) {
	g, _ := New(20)
	if _, err := g.InsertTE(5, 10); err != nil {
		t.Fatalf("insert: %v", err)
	}
	id2, err := g.InsertTE(10, 10)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := g.Render(); got != "-----xxxxxAAAAAAAAAAxxxxx---------------" {
		t.Fatalf("render = %q", got)
	}
	ids := g.ActiveTEs()
	if len(ids) != 1 || ids[0] != id2 {
		t.Fatalf("active = %v, want [%d]", ids, id2)
	}
}

func TestDisableTEWalksOnlyItsRun(t *testing.T) {
	g, _ := New(12)
	id1, _ := g.InsertTE(2, 3)
	id2, _ := g.InsertTE(9, 2)
	g.DisableTE(id1)
	if got := g.Render(); got != "--xxx----AA------" {
		t.Fatalf("render = %q", got)
	}
	ids := g.ActiveTEs()
	if len(ids) != 1 || ids[0] != id2 {
		t.Fatalf("active = %v, want [%d]", ids, id2)
	}
	g.DisableTE(id1) // idempotent
	g.DisableTE(77)  // unknown
	if got := g.Render(); got != "--xxx----AA------" {
		t.Fatalf("render changed after no-op disables: %q", got)
	}
}

func TestCopyTEDisabledOrUnknownIsNoop(t *testing.T) {
	g, _ := New(10)
	id, _ := g.InsertTE(3, 2)
	g.DisableTE(id)
	before := g.Render()
	for _, te := range []int{id, 42} {
		got, err := g.CopyTE(te, 5)
		if err != nil {
			t.Fatalf("copy %d: %v", te, err)
		}
		if got != 0 {
			t.Fatalf("copy %d returned id %d, want 0", te, got)
		}
	}
	if g.Render() != before {
		t.Fatalf("no-op copy mutated the genome")
	}
}

func TestCopyTEPositiveAndNegativeOffsets(t *testing.T) {
	g, _ := New(20)
	id, _ := g.InsertTE(10, 4) // start 10, len 24
	nid, err := g.CopyTE(id, 8)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if nid != 2 {
		t.Fatalf("id = %d, want 2", nid)
	}
	if got := g.Render(); got != "----------AAAA----AAAA------" {
		t.Fatalf("render = %q", got)
	}
	// Negative offset wraps to the high end of the 28-site genome.
	nid, err = g.CopyTE(id, -12)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if nid != 3 {
		t.Fatalf("id = %d, want 3", nid)
	}
	if g.Len() != 32 {
		t.Fatalf("len = %d, want 32", g.Len())
	}
	if !strings.Contains(g.Render(), "AAAA") {
		t.Fatalf("render = %q", g.Render())
	}
}

func TestRenderAlphabetAndLength(t *testing.T) {
	g, _ := New(15)
	id, _ := g.InsertTE(4, 5)
	g.InsertTE(6, 2)
	g.DisableTE(id)
	r := g.Render()
	if len(r) != g.Len() {
		t.Fatalf("render length %d != Len %d", len(r), g.Len())
	}
	for i := 0; i < len(r); i++ {
		switch r[i] {
		case genome.MarkerEmpty, genome.MarkerActive, genome.MarkerDisabled:
		default:
			t.Fatalf("unexpected marker %q at %d", r[i], i)
		}
	}
}
