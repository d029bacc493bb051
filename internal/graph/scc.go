package graph

import "sort"

// Condensation is the SCC-collapsed view of a graph. Component ids are
// assigned in topological order, so every condensation edge runs from a
// lower id to a higher id. Within a component, member indices are sorted.
type Condensation struct {
	Comp   []int   // arena index -> component id
	Groups [][]int // component id -> member arena indices
	Adj    [][]int // component id -> successor component ids
	Preds  [][]int // component id -> predecessor component ids
}

// Condense runs Tarjan's algorithm and contracts each strongly connected
// component to a single node. The result is guaranteed acyclic.
func Condense(g *Graph) *Condensation {
	n := g.NodeCount()
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	var groups [][]int
	comp := make([]int, n)
	next := 0

	// Iterative Tarjan; the explicit frame stack keeps deep dependency
	// chains from exhausting the goroutine stack.
	type frame struct {
		v, ei int
	}
	for root := 0; root < n; root++ {
		if index[root] != -1 {
			continue
		}
		frames := []frame{{v: root}}
		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			v := f.v
			if f.ei == 0 {
				index[v] = next
				lowlink[v] = next
				next++
				stack = append(stack, v)
				onStack[v] = true
			}
			advanced := false
			for f.ei < len(g.out[v]) {
				w := g.out[v][f.ei]
				f.ei++
				if index[w] == -1 {
					frames = append(frames, frame{v: w})
					advanced = true
					break
				}
				if onStack[w] && index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
			if advanced {
				continue
			}
			if lowlink[v] == index[v] {
				var members []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					members = append(members, w)
					if w == v {
						break
					}
				}
				sort.Ints(members)
				groups = append(groups, members)
			}
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				p := frames[len(frames)-1].v
				if lowlink[v] < lowlink[p] {
					lowlink[p] = lowlink[v]
				}
			}
		}
	}

	// Tarjan emits components sinks-first; reverse for topological ids.
	for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
		groups[i], groups[j] = groups[j], groups[i]
	}
	for cid, members := range groups {
		for _, v := range members {
			comp[v] = cid
		}
	}

	m := len(groups)
	adjSet := make([]map[int]struct{}, m)
	for _, e := range g.edges {
		a, b := comp[e.From], comp[e.To]
		if a == b {
			continue
		}
		if adjSet[a] == nil {
			adjSet[a] = make(map[int]struct{})
		}
		adjSet[a][b] = struct{}{}
	}
	adj := make([][]int, m)
	preds := make([][]int, m)
	for a, set := range adjSet {
		for b := range set {
			adj[a] = append(adj[a], b)
			preds[b] = append(preds[b], a)
		}
	}
	for i := range adj {
		sort.Ints(adj[i])
	}
	for i := range preds {
		sort.Ints(preds[i])
	}
	return &Condensation{Comp: comp, Groups: groups, Adj: adj, Preds: preds}
}
