package analytics

import "reweave/internal/graph"

// computeCentrality fills the per-node centrality map. Degree centrality is
// always computed; on graphs whose condensation is small enough, a
// betweenness pass over the condensed (acyclic) graph is blended in. The
// exact blend is an option, not a contract; only determinism is.
func (r *Result) computeCentrality(opts Options) {
	g := r.g
	n := g.NodeCount()
	degree := make([]float64, n)
	if n > 1 {
		norm := float64(2 * (n - 1))
		for v := 0; v < n; v++ {
			degree[v] = float64(len(g.In(v))+len(g.Out(v))) / norm
		}
	}

	if len(r.cond.Groups) > opts.BetweennessMaxNodes {
		// Deliberate accuracy/cost trade-off: betweenness is O(V·E) and is
		// skipped above the threshold.
		for v := 0; v < n; v++ {
			r.Centrality[g.Node(v).ID] = degree[v]
		}
		return
	}

	bw := condensedBetweenness(r.cond)
	maxBW := 0.0
	for _, b := range bw {
		if b > maxBW {
			maxBW = b
		}
	}
	w := opts.BetweennessWeight
	for v := 0; v < n; v++ {
		score := degree[v]
		if maxBW > 0 {
			score = (1-w)*degree[v] + w*(bw[r.cond.Comp[v]]/maxBW)
		}
		r.Centrality[g.Node(v).ID] = score
	}
}

// condensedBetweenness runs Brandes' accumulation over the condensation.
// Unweighted shortest paths; the condensation is a DAG so every BFS is
// cheap and the result is exact.
func condensedBetweenness(cond *graph.Condensation) []float64 {
	m := len(cond.Groups)
	bw := make([]float64, m)
	sigma := make([]float64, m)
	dist := make([]int, m)
	delta := make([]float64, m)

	for s := 0; s < m; s++ {
		for i := 0; i < m; i++ {
			sigma[i] = 0
			dist[i] = -1
			delta[i] = 0
		}
		sigma[s] = 1
		dist[s] = 0
		order := make([]int, 0, m)
		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			order = append(order, v)
			for _, w := range cond.Adj[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
				}
			}
		}
		for i := len(order) - 1; i >= 0; i-- {
			v := order[i]
			for _, w := range cond.Adj[v] {
				if dist[w] == dist[v]+1 && sigma[w] > 0 {
					delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
				}
			}
			if v != s {
				bw[v] += delta[v]
			}
		}
	}
	return bw
}
