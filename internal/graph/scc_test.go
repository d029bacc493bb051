package graph

import (
	"testing"

	"reweave/internal/types"
)

func TestCondense_ChainIsTopological(t *testing.T) {
	g, _ := Build(
		[]types.Entity{ent("a", types.KindModule), ent("b", types.KindModule), ent("c", types.KindModule)},
		[]types.DependencyRef{dep("a", "b"), dep("b", "c")},
	)
	cond := Condense(g)
	if len(cond.Groups) != 3 {
		t.Fatalf("expected 3 components, got %d", len(cond.Groups))
	}
	ai, _ := g.Index("a")
	bi, _ := g.Index("b")
	ci, _ := g.Index("c")
	if !(cond.Comp[ai] < cond.Comp[bi] && cond.Comp[bi] < cond.Comp[ci]) {
		t.Fatalf("component ids not topological: a=%d b=%d c=%d",
			cond.Comp[ai], cond.Comp[bi], cond.Comp[ci])
	}
}

func TestCondense_CycleCollapses(t *testing.T) {
	g, _ := Build(
		[]types.Entity{
			ent("A", types.KindClass), ent("B", types.KindClass),
			ent("C", types.KindClass), ent("D", types.KindClass),
		},
		[]types.DependencyRef{dep("A", "B"), dep("B", "C"), dep("C", "A"), dep("D", "A")},
	)
	cond := Condense(g)
	if len(cond.Groups) != 2 {
		t.Fatalf("expected 2 components, got %d", len(cond.Groups))
	}
	ai, _ := g.Index("A")
	bi, _ := g.Index("B")
	ci, _ := g.Index("C")
	di, _ := g.Index("D")
	if cond.Comp[ai] != cond.Comp[bi] || cond.Comp[bi] != cond.Comp[ci] {
		t.Fatalf("cycle members in different components: %v", cond.Comp)
	}
	if cond.Comp[di] == cond.Comp[ai] {
		t.Fatal("D must not join the cycle component")
	}
	// The edge D -> cycle forces D's component id below the cycle's.
	if cond.Comp[di] != 0 || cond.Comp[ai] != 1 {
		t.Fatalf("expected D=0, cycle=1, got D=%d cycle=%d", cond.Comp[di], cond.Comp[ai])
	}
	if len(cond.Adj[0]) != 1 || cond.Adj[0][0] != 1 {
		t.Fatalf("expected condensation edge 0 -> 1, got %v", cond.Adj)
	}
	if len(cond.Preds[1]) != 1 || cond.Preds[1][0] != 0 {
		t.Fatalf("expected predecessor list [0] for the cycle, got %v", cond.Preds[1])
	}
}

func TestCondense_EdgesRunLowToHigh(t *testing.T) {
	g, _ := Build(
		[]types.Entity{
			ent("a", types.KindModule), ent("b", types.KindModule),
			ent("c", types.KindModule), ent("d", types.KindModule),
			ent("e", types.KindModule),
		},
		[]types.DependencyRef{
			dep("e", "d"), dep("d", "c"), dep("c", "b"), dep("b", "a"),
			dep("e", "a"), dep("d", "b"),
		},
	)
	cond := Condense(g)
	for from, succs := range cond.Adj {
		for _, to := range succs {
			if from >= to {
				t.Fatalf("condensation edge %d -> %d violates topological numbering", from, to)
			}
		}
	}
}
