package graph

import (
	"fmt"
	"sort"
	"strings"

	"reweave/internal/types"
)

// Diagnostic records a non-fatal input defect. Malformed input degrades the
// graph; it never aborts the build, because a partial view of a codebase
// must still produce a usable plan.
type Diagnostic struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

const (
	DiagDuplicateEntity = "duplicate_entity"
	DiagDanglingEdge    = "dangling_edge"
	DiagSelfEdge        = "self_edge"
	DiagEmptyID         = "empty_id"
)

// Build constructs the graph from the analyzer's entity and dependency
// lists.
//
// Entities are inserted in ascending id order, so the arena's discovery
// order is a pure function of the id set and re-running on a permuted input
// yields an identical graph. Duplicate ids keep the first occurrence (in
// input order) and flag the rest; edges with a missing endpoint are
// rejected as diagnostics, never inserted; self-edges are dropped. Repeated
// (source, target) pairs collapse into one edge with an occurrence count,
// keeping the lexicographically smallest kind.
func Build(entities []types.Entity, deps []types.DependencyRef) (*Graph, []Diagnostic) {
	var diags []Diagnostic

	byID := make(map[string]types.Entity, len(entities))
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			diags = append(diags, Diagnostic{Kind: DiagEmptyID, Detail: fmt.Sprintf("entity %q has no id", e.Name)})
			continue
		}
		if _, dup := byID[id]; dup {
			diags = append(diags, Diagnostic{Kind: DiagDuplicateEntity, Detail: fmt.Sprintf("duplicate entity id %s; first occurrence kept", id)})
			continue
		}
		byID[id] = e
		ids = append(ids, id)
	}
	sort.Strings(ids)

	g := &Graph{
		nodes: make([]types.Entity, 0, len(ids)),
		index: make(map[string]int, len(ids)),
	}
	for i, id := range ids {
		g.nodes = append(g.nodes, byID[id])
		g.index[id] = i
	}
	g.out = make([][]int, len(g.nodes))
	g.in = make([][]int, len(g.nodes))

	type pair struct{ from, to int }
	seen := make(map[pair]int) // pair -> index into g.edges
	for _, d := range deps {
		src, okS := g.index[strings.TrimSpace(d.Source)]
		dst, okT := g.index[strings.TrimSpace(d.Target)]
		if !okS || !okT {
			diags = append(diags, Diagnostic{Kind: DiagDanglingEdge, Detail: fmt.Sprintf("edge %s -> %s references unknown entity", d.Source, d.Target)})
			continue
		}
		if src == dst {
			diags = append(diags, Diagnostic{Kind: DiagSelfEdge, Detail: fmt.Sprintf("self edge on %s dropped", d.Source)})
			continue
		}
		p := pair{src, dst}
		if i, ok := seen[p]; ok {
			g.edges[i].Count++
			// Merged kind is the lexicographically smallest seen for the
			// pair, so the edge set never depends on input order.
			if d.Kind < g.edges[i].Kind {
				g.edges[i].Kind = d.Kind
			}
			continue
		}
		seen[p] = len(g.edges)
		g.edges = append(g.edges, Edge{From: src, To: dst, Kind: d.Kind, Count: 1})
	}

	// Canonical edge order, then derived adjacency.
	sort.Slice(g.edges, func(i, j int) bool {
		if g.edges[i].From != g.edges[j].From {
			return g.edges[i].From < g.edges[j].From
		}
		return g.edges[i].To < g.edges[j].To
	})
	for _, e := range g.edges {
		g.out[e.From] = append(g.out[e.From], e.To)
		g.in[e.To] = append(g.in[e.To], e.From)
	}
	return g, diags
}
