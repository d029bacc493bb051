// Package graph builds and owns the dependency graph over analyzer entities.
// Nodes live in an arena indexed by discovery order; adjacency is by index,
// never by pointer, so cyclic inputs stay representable and cheap to walk.
package graph

import (
	"sort"

	"reweave/internal/types"
)

// Edge is one deduplicated directed edge between two arena indices.
type Edge struct {
	From  int
	To    int
	Kind  string
	Count int
}

// Graph owns the entity arena and the deduplicated edge set. Adjacency is
// derived at build time and read-only afterwards.
type Graph struct {
	nodes []types.Entity
	index map[string]int
	edges []Edge
	out   [][]int
	in    [][]int
}

// NodeCount returns the number of distinct entities in the arena.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of deduplicated edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node returns the entity at arena index i.
func (g *Graph) Node(i int) types.Entity { return g.nodes[i] }

// Index returns the arena index for an entity id.
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Out returns the arena indices reachable by one forward edge from i.
func (g *Graph) Out(i int) []int { return g.out[i] }

// In returns the arena indices with an edge into i.
func (g *Graph) In(i int) []int { return g.in[i] }

// Edges returns the deduplicated edge list in deterministic order.
func (g *Graph) Edges() []Edge { return g.edges }

// Nodes returns the arena in discovery order.
func (g *Graph) Nodes() []types.Entity { return g.nodes }

// Export renders the node/edge portion of the knowledge graph document.
func (g *Graph) Export() ([]types.GraphNode, []types.GraphEdge) {
	nodes := make([]types.GraphNode, 0, len(g.nodes))
	for _, e := range g.nodes {
		nodes = append(nodes, types.GraphNode{ID: e.ID, Name: e.Name, Kind: e.Kind, Path: e.Path})
	}
	edges := make([]types.GraphEdge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, types.GraphEdge{
			Source: g.nodes[e.From].ID,
			Target: g.nodes[e.To].ID,
			Kind:   e.Kind,
			Count:  e.Count,
		})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return nodes, edges
}
