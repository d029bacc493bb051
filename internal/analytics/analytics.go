// Package analytics derives graph-level metrics over a built dependency
// graph: centrality, communities, impact sets, and the "core component"
// ranking the planner uses to front-load central work.
package analytics

import (
	"context"
	"log"
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"reweave/internal/graph"
	"reweave/internal/types"
)

// Options tune the accuracy/cost trade-offs. Zero values select defaults.
type Options struct {
	// BetweennessMaxNodes caps the graph size for betweenness centrality.
	// Above it only degree centrality is used; betweenness is O(V·E) and
	// skipping it on big graphs is intentional.
	BetweennessMaxNodes int
	// BetweennessWeight blends betweenness into the degree score in [0,1].
	BetweennessWeight float64
	// CoreTopK is how many nodes get the "core" flag.
	CoreTopK int
	// ImpactCacheSize bounds the memoized expanded impact sets.
	ImpactCacheSize int
}

func (o Options) withDefaults() Options {
	if o.BetweennessMaxNodes <= 0 {
		o.BetweennessMaxNodes = 500
	}
	if o.BetweennessWeight <= 0 || o.BetweennessWeight > 1 {
		o.BetweennessWeight = 0.5
	}
	if o.CoreTopK <= 0 {
		o.CoreTopK = 10
	}
	if o.ImpactCacheSize <= 0 {
		o.ImpactCacheSize = 256
	}
	return o
}

// Result is the analytics view over one graph. Impact sets are materialized
// lazily; everything else is computed up front and read-only.
type Result struct {
	Centrality     map[string]float64
	Communities    map[string]int
	CoreComponents []string
	// CoreScores holds centrality × log1p(|impact|) for every node, the
	// total order used for planner tie-breaks.
	CoreScores map[string]float64
	// GraphWideImpact lists nodes whose impact set covers the whole graph,
	// the reported (not failed) symptom of a repository-wide cycle.
	GraphWideImpact []string

	g      *graph.Graph
	cond   *graph.Condensation
	reach  []bitset // component id -> reachable component bitset
	sizes  []int    // node arena index -> |impact set|
	expand *lru.Cache[int, []string]
}

// Analyze computes all metrics for g. It never fails on graph shape; an
// empty graph yields an empty result.
func Analyze(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	cache, err := lru.New[int, []string](opts.ImpactCacheSize)
	if err != nil {
		return nil, err
	}
	r := &Result{
		Centrality:  make(map[string]float64, g.NodeCount()),
		Communities: make(map[string]int, g.NodeCount()),
		CoreScores:  make(map[string]float64, g.NodeCount()),
		g:           g,
		cond:        graph.Condense(g),
		expand:      cache,
	}
	if g.NodeCount() == 0 {
		return r, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.computeImpact()
	r.computeCentrality(opts)
	r.computeCommunities()
	r.rankCore(opts)

	if len(r.GraphWideImpact) > 0 {
		log.Printf("analytics: %d node(s) reach the entire graph (repository-wide cycle)", len(r.GraphWideImpact))
	}
	return r, nil
}

// ImpactSize returns |impact set| for a node id without materializing it.
func (r *Result) ImpactSize(id string) int {
	i, ok := r.g.Index(id)
	if !ok {
		return 0
	}
	return r.sizes[i]
}

// Impact materializes the sorted impact set for a node id. Expansions are
// memoized per strongly connected component, since all members of a
// component share the same reachable set.
func (r *Result) Impact(id string) []string {
	v, ok := r.g.Index(id)
	if !ok {
		return nil
	}
	cid := r.cond.Comp[v]
	base, ok := r.expand.Get(cid)
	if !ok {
		var ids []string
		for _, members := range componentsOf(r.reach[cid], r.cond) {
			for _, w := range members {
				ids = append(ids, r.g.Node(w).ID)
			}
		}
		if len(r.cond.Groups[cid]) > 1 {
			for _, w := range r.cond.Groups[cid] {
				ids = append(ids, r.g.Node(w).ID)
			}
		}
		sort.Strings(ids)
		r.expand.Add(cid, ids)
		base = ids
	}
	// For a cycle member the shared set includes the node itself; that is
	// correct, it reaches itself through the cycle.
	return base
}

func componentsOf(bs bitset, cond *graph.Condensation) [][]int {
	var out [][]int
	for cid := 0; cid < len(cond.Groups); cid++ {
		if bs.has(cid) {
			out = append(out, cond.Groups[cid])
		}
	}
	return out
}

// computeImpact fills per-component reachability bitsets in reverse
// topological order and derives per-node impact sizes.
func (r *Result) computeImpact() {
	cond := r.cond
	m := len(cond.Groups)
	r.reach = make([]bitset, m)
	memberCount := make([]int, m)
	for cid, members := range cond.Groups {
		memberCount[cid] = len(members)
	}
	// Component ids are already topological, so walk them backwards.
	for cid := m - 1; cid >= 0; cid-- {
		bs := newBitset(m)
		for _, succ := range cond.Adj[cid] {
			bs.set(succ)
			bs.or(r.reach[succ])
		}
		r.reach[cid] = bs
	}

	compSize := make([]int, m)
	for cid := 0; cid < m; cid++ {
		size := 0
		for succ := 0; succ < m; succ++ {
			if r.reach[cid].has(succ) {
				size += memberCount[succ]
			}
		}
		if memberCount[cid] > 1 {
			size += memberCount[cid] // cycle members reach each other and themselves
		}
		compSize[cid] = size
	}

	n := r.g.NodeCount()
	r.sizes = make([]int, n)
	for v := 0; v < n; v++ {
		r.sizes[v] = compSize[cond.Comp[v]]
		if r.sizes[v] == n {
			r.GraphWideImpact = append(r.GraphWideImpact, r.g.Node(v).ID)
		}
	}
	sort.Strings(r.GraphWideImpact)
}

func (r *Result) rankCore(opts Options) {
	type scored struct {
		id    string
		score float64
	}
	ranked := make([]scored, 0, r.g.NodeCount())
	for v := 0; v < r.g.NodeCount(); v++ {
		id := r.g.Node(v).ID
		s := r.Centrality[id] * math.Log1p(float64(r.sizes[v]))
		r.CoreScores[id] = s
		ranked = append(ranked, scored{id: id, score: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})
	k := opts.CoreTopK
	if k > len(ranked) {
		k = len(ranked)
	}
	for _, s := range ranked[:k] {
		r.CoreComponents = append(r.CoreComponents, s.id)
	}
}

// Knowledge assembles the exported knowledge-graph document.
func (r *Result) Knowledge() types.KnowledgeGraph {
	nodes, edges := r.g.Export()
	return types.KnowledgeGraph{
		Nodes:          nodes,
		Edges:          edges,
		Centrality:     r.Centrality,
		Communities:    r.Communities,
		CoreComponents: r.CoreComponents,
	}
}
