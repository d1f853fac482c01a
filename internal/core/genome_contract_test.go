package core

import (
	"strings"
	"testing"

	"tesim/pkg/genome"
)

func kinds() []genome.Kind {
	return []genome.Kind{genome.KindBuffer, genome.KindLinked}
}

func mustGenome(t *testing.T, kind genome.Kind, n int) genome.Genome {
	t.Helper()
	g, err := NewGenome(kind, n)
	if err != nil {
		t.Fatalf("NewGenome(%s, %d): %v", kind, n, err)
	}
	return g
}

func mustInsert(t *testing.T, g genome.Genome, pos, length int) int {
	t.Helper()
	id, err := g.InsertTE(pos, length)
	if err != nil {
		t.Fatalf("InsertTE(%d, %d): %v", pos, length, err)
	}
	return id
}

func mustCopy(t *testing.T, g genome.Genome, te, offset int) int {
	t.Helper()
	id, err := g.CopyTE(te, offset)
	if err != nil {
		t.Fatalf("CopyTE(%d, %d): %v", te, offset, err)
	}
	return id
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestWorkedScenario pins the full insert/copy/disable walkthrough for both
// representations: every intermediate render and active set is exact.
func TestWorkedScenario(t *testing.T) {
	for _, kind := range kinds() {
		t.Run(string(kind), func(t *testing.T) {
			g := mustGenome(t, kind, 20)

			if got := g.Render(); got != strings.Repeat("-", 20) {
				t.Fatalf("initial render = %q", got)
			}
			if ids := g.ActiveTEs(); len(ids) != 0 {
				t.Fatalf("initial active = %v", ids)
			}

			if id := mustInsert(t, g, 5, 10); id != 1 {
				t.Fatalf("insert 1 returned %d", id)
			}
			if got := g.Render(); got != "-----AAAAAAAAAA---------------" {
				t.Fatalf("after insert 1: %q", got)
			}
			if ids := g.ActiveTEs(); !equalIDs(ids, []int{1}) {
				t.Fatalf("active = %v, want [1]", ids)
			}

			// Landing inside TE 1 disables all of it.
			if id := mustInsert(t, g, 10, 10); id != 2 {
				t.Fatalf("insert 2 returned %d", id)
			}
			if got := g.Render(); got != "-----xxxxxAAAAAAAAAAxxxxx---------------" {
				t.Fatalf("after insert 2: %q", got)
			}
			if ids := g.ActiveTEs(); !equalIDs(ids, []int{2}) {
				t.Fatalf("active = %v, want [2]", ids)
			}

			if id := mustCopy(t, g, 2, 20); id != 3 {
				t.Fatalf("copy +20 returned %d", id)
			}
			if got := g.Render(); got != "-----xxxxxAAAAAAAAAAxxxxx-----AAAAAAAAAA----------" {
				t.Fatalf("after copy +20: %q", got)
			}
			if ids := g.ActiveTEs(); !equalIDs(ids, []int{2, 3}) {
				t.Fatalf("active = %v, want [2 3]", ids)
			}

			if id := mustCopy(t, g, 2, -15); id != 4 {
				t.Fatalf("copy -15 returned %d", id)
			}
			if got := g.Render(); got != "-----xxxxxAAAAAAAAAAxxxxx-----AAAAAAAAAA-----AAAAAAAAAA-----" {
				t.Fatalf("after copy -15: %q", got)
			}
			if ids := g.ActiveTEs(); !equalIDs(ids, []int{2, 3, 4}) {
				t.Fatalf("active = %v, want [2 3 4]", ids)
			}

			if id := mustInsert(t, g, 50, 10); id != 5 {
				t.Fatalf("insert 5 returned %d", id)
			}
			if got := g.Render(); got != "-----xxxxxAAAAAAAAAAxxxxx-----AAAAAAAAAA-----xxxxxAAAAAAAAAAxxxxx-----" {
				t.Fatalf("after insert 5: %q", got)
			}
			if ids := g.ActiveTEs(); !equalIDs(ids, []int{2, 3, 5}) {
				t.Fatalf("active = %v, want [2 3 5]", ids)
			}

			g.DisableTE(3)
			if got := g.Render(); got != "-----xxxxxAAAAAAAAAAxxxxx-----xxxxxxxxxx-----xxxxxAAAAAAAAAAxxxxx-----" {
				t.Fatalf("after disable 3: %q", got)
			}
			if ids := g.ActiveTEs(); !equalIDs(ids, []int{2, 5}) {
				t.Fatalf("active = %v, want [2 5]", ids)
			}

			// Unknown identifier: pure no-op.
			before := g.Render()
			if id := mustCopy(t, g, 99, 0); id != 0 {
				t.Fatalf("copy of unknown TE returned %d", id)
			}
			if got := g.Render(); got != before {
				t.Fatalf("unknown copy mutated render")
			}
			if ids := g.ActiveTEs(); !equalIDs(ids, []int{2, 5}) {
				t.Fatalf("active = %v, want [2 5]", ids)
			}
		})
	}
}

// TestLengthGrowsByInsertedLength checks the length invariant for a mix of
// wrapped and in-range positions.
func TestLengthGrowsByInsertedLength(t *testing.T) {
	for _, kind := range kinds() {
		t.Run(string(kind), func(t *testing.T) {
			g := mustGenome(t, kind, 7)
			for i, c := range []struct{ pos, length int }{
				{0, 1}, {3, 4}, {100, 2}, {-9, 5},
			} {
				before := g.Len()
				mustInsert(t, g, c.pos, c.length)
				if got := g.Len(); got != before+c.length {
					t.Fatalf("step %d: len %d -> %d, want %d", i, before, got, before+c.length)
				}
				if len(g.Render()) != g.Len() {
					t.Fatalf("step %d: render length mismatch", i)
				}
			}
		})
	}
}

// TestDisabledTEsNeverReactivate checks the disable transition is terminal.
func TestDisabledTEsNeverReactivate(t *testing.T) {
	for _, kind := range kinds() {
		t.Run(string(kind), func(t *testing.T) {
			g := mustGenome(t, kind, 30)
			id1 := mustInsert(t, g, 4, 5)
			id2 := mustInsert(t, g, 20, 5)
			g.DisableTE(id1)
			for i := 0; i < 4; i++ {
				mustInsert(t, g, 2+i, 3)
				for _, active := range g.ActiveTEs() {
					if active == id1 {
						t.Fatalf("disabled TE %d reappeared in active set", id1)
					}
				}
			}
			if id := mustCopy(t, g, id1, 3); id != 0 {
				t.Fatalf("copy of disabled TE returned %d", id)
			}
			_ = id2
		})
	}
}

// TestRenderAlphabet checks the render contract after a busy edit sequence.
func TestRenderAlphabet(t *testing.T) {
	for _, kind := range kinds() {
		t.Run(string(kind), func(t *testing.T) {
			g := mustGenome(t, kind, 11)
			a := mustInsert(t, g, 3, 4)
			mustInsert(t, g, 5, 2)
			mustCopy(t, g, a, 6)
			b := mustInsert(t, g, 0, 3)
			g.DisableTE(b)
			r := g.Render()
			if len(r) != g.Len() {
				t.Fatalf("render length %d != Len %d", len(r), g.Len())
			}
			if rest := strings.Trim(r, "-Ax"); rest != "" {
				t.Fatalf("render alphabet violation: %q", r)
			}
		})
	}
}

// TestRepresentationsAgree drives both implementations through the same
// deterministic edit script and requires identical observable state.
func TestRepresentationsAgree(t *testing.T) {
	type op struct {
		kind string
		a, b int
	}
	script := []op{
		{"insert", 5, 3},
		{"insert", 12, 4},
		{"copy", 1, 7},
		{"insert", 0, 2},
		{"disable", 2, 0},
		{"copy", 3, -11},
		{"insert", 40, 6},
		{"copy", 2, 5}, // disabled: no-op
		{"insert", -3, 1},
		{"disable", 99, 0},
	}
	bg := mustGenome(t, genome.KindBuffer, 17)
	lg := mustGenome(t, genome.KindLinked, 17)
	for i, o := range script {
		switch o.kind {
		case "insert":
			bi := mustInsert(t, bg, o.a, o.b)
			li := mustInsert(t, lg, o.a, o.b)
			if bi != li {
				t.Fatalf("step %d: insert ids diverge %d vs %d", i, bi, li)
			}
		case "copy":
			bi := mustCopy(t, bg, o.a, o.b)
			li := mustCopy(t, lg, o.a, o.b)
			if bi != li {
				t.Fatalf("step %d: copy ids diverge %d vs %d", i, bi, li)
			}
		case "disable":
			bg.DisableTE(o.a)
			lg.DisableTE(o.a)
		}
		if bg.Render() != lg.Render() {
			t.Fatalf("step %d: renders diverge\nbuffer: %q\nlinked: %q", i, bg.Render(), lg.Render())
		}
		if !equalIDs(bg.ActiveTEs(), lg.ActiveTEs()) {
			t.Fatalf("step %d: active sets diverge %v vs %v", i, bg.ActiveTEs(), lg.ActiveTEs())
		}
	}
}
