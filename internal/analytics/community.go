package analytics

import "sort"

// computeCommunities partitions the graph by greedy modularity
// maximization: every node starts in its own community, and the pair of
// communities whose merge yields the largest modularity gain is merged
// until no merge improves modularity. Ties are broken by the
// lexicographically smallest (a, b) community pair, which makes the
// partition a pure function of the graph.
func (r *Result) computeCommunities() {
	g := r.g
	n := g.NodeCount()

	// Undirected weighted view; edge direction is irrelevant to cohesion.
	weight := make([]map[int]float64, n)
	for i := range weight {
		weight[i] = make(map[int]float64)
	}
	var m float64
	for _, e := range g.Edges() {
		w := float64(e.Count)
		weight[e.From][e.To] += w
		weight[e.To][e.From] += w
		m += w
	}

	// community id -> member nodes; nil marks a merged-away community.
	members := make([][]int, n)
	deg := make([]float64, n)
	between := make([]map[int]float64, n)
	for v := 0; v < n; v++ {
		members[v] = []int{v}
		between[v] = make(map[int]float64)
		for u, w := range weight[v] {
			deg[v] += w
			between[v][u] = w
		}
	}

	if m > 0 {
		for {
			bestA, bestB := -1, -1
			bestGain := 0.0
			for a := 0; a < n; a++ {
				if members[a] == nil {
					continue
				}
				partners := make([]int, 0, len(between[a]))
				for b := range between[a] {
					if b > a && members[b] != nil {
						partners = append(partners, b)
					}
				}
				sort.Ints(partners)
				for _, b := range partners {
					eAB := between[a][b]
					// Scanning (a, b) in ascending order with a strict
					// comparison keeps the lexicographically smallest pair
					// among equal gains.
					gain := eAB/m - deg[a]*deg[b]/(2*m*m)
					if gain > bestGain {
						bestGain = gain
						bestA, bestB = a, b
					}
				}
			}
			if bestA < 0 || bestGain <= 0 {
				break
			}
			mergeCommunities(members, deg, between, bestA, bestB)
		}
	}

	// Dense labels ordered by smallest member, so output is stable.
	label := 0
	for c := 0; c < n; c++ {
		if members[c] == nil {
			continue
		}
		for _, v := range members[c] {
			r.Communities[g.Node(v).ID] = label
		}
		label++
	}
}

// mergeCommunities folds community b into a, updating degrees and
// inter-community weights.
func mergeCommunities(members [][]int, deg []float64, between []map[int]float64, a, b int) {
	members[a] = append(members[a], members[b]...)
	members[b] = nil
	deg[a] += deg[b]
	deg[b] = 0
	for c, w := range between[b] {
		if c == a {
			continue
		}
		between[a][c] += w
		between[c][a] += w
		delete(between[c], b)
	}
	delete(between[a], b)
	between[b] = nil
}
