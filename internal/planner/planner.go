// Package planner turns a dependency graph plus its analytics into an
// ordered, dependency-respecting implementation plan. Cycles are resolved
// structurally: each strongly connected component of size > 1 collapses
// into one step, so the plan itself is always acyclic.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"reweave/internal/analytics"
	"reweave/internal/graph"
	"reweave/internal/types"
)

// Plan builds the step set and a frozen execution order.
//
// Order among unconstrained steps is deterministic: descending core score
// (so architecturally central work is front-loaded), then ascending arena
// discovery order. depends_on holds only direct condensation predecessors;
// the orchestrator computes readiness incrementally.
func Plan(g *graph.Graph, res *analytics.Result) *types.StrategyDoc {
	doc := &types.StrategyDoc{
		Dependencies: make(map[string][]string),
	}
	if g.NodeCount() == 0 {
		return doc
	}

	cond := graph.Condense(g)
	m := len(cond.Groups)

	// Per-component priority for topological tie-breaks.
	score := make([]float64, m)
	for cid, members := range cond.Groups {
		best := 0.0
		for _, v := range members {
			if s := res.CoreScores[g.Node(v).ID]; s > best {
				best = s
			}
		}
		score[cid] = best
	}

	order := topoOrder(cond, score)

	stepID := make([]string, m)
	steps := make([]types.StrategyStep, 0, m)
	for _, cid := range order {
		step := buildStep(g, res, cond.Groups[cid])
		stepID[cid] = step.ID
		steps = append(steps, step)
	}
	for _, cid := range order {
		deps := make([]string, 0, len(cond.Preds[cid]))
		for _, p := range cond.Preds[cid] {
			deps = append(deps, stepID[p])
		}
		sort.Strings(deps)
		doc.Dependencies[stepID[cid]] = deps
		doc.ExecutionOrder = append(doc.ExecutionOrder, stepID[cid])
	}
	doc.Steps = steps
	return doc
}

// topoOrder is Kahn's algorithm over the condensation with a priority
// ready set: highest score first, then lowest component id (which is
// ascending discovery order of the underlying arena).
func topoOrder(cond *graph.Condensation, score []float64) []int {
	m := len(cond.Groups)
	indeg := make([]int, m)
	for _, succs := range cond.Adj {
		for _, s := range succs {
			indeg[s]++
		}
	}
	ready := make([]int, 0, m)
	for cid := 0; cid < m; cid++ {
		if indeg[cid] == 0 {
			ready = append(ready, cid)
		}
	}
	order := make([]int, 0, m)
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			a, b := ready[i], ready[j]
			if score[a] != score[b] {
				return score[a] > score[b]
			}
			return a < b
		})
		cid := ready[0]
		ready = ready[1:]
		order = append(order, cid)
		for _, s := range cond.Adj[cid] {
			indeg[s]--
			if indeg[s] == 0 {
				ready = append(ready, s)
			}
		}
	}
	return order
}

// buildStep creates the immutable step covering one condensation component.
func buildStep(g *graph.Graph, res *analytics.Result, members []int) types.StrategyStep {
	ids := make([]string, 0, len(members))
	names := make([]string, 0, len(members))
	for _, v := range members {
		ids = append(ids, g.Node(v).ID)
		names = append(names, g.Node(v).Name)
	}
	sort.Strings(ids)

	step := types.StrategyStep{
		Entities:  ids,
		Community: res.Communities[ids[0]],
	}
	if len(members) == 1 {
		e := g.Node(members[0])
		step.ID = "step_" + slug(e.ID)
		step.Description = fmt.Sprintf("Implement %s: %s", e.Kind, e.Name)
		step.ExpectedOutput = fmt.Sprintf("Implementation of %s %s", e.Name, e.Kind)
		step.ValidationCriteria = criteriaFor(e)
		return step
	}
	step.ID = "step_cycle_" + slug(ids[0])
	step.Description = fmt.Sprintf("Implement %d mutually dependent entities together: %s", len(members), strings.Join(names, ", "))
	step.ExpectedOutput = fmt.Sprintf("Joint implementation of the %d-entity dependency cycle rooted at %s", len(members), ids[0])
	step.ValidationCriteria = cycleCriteria(g, members)
	return step
}

func criteriaFor(e types.Entity) []string {
	criteria := []string{
		fmt.Sprintf("Implementation matches %s specification", e.Kind),
	}
	switch e.Kind {
	case types.KindClass:
		criteria = append(criteria, "All methods are implemented correctly", "Class interface is consistent with specification")
	case types.KindFunction:
		criteria = append(criteria, "Function handles all specified input cases", "Function produces correct output")
	case types.KindModule:
		criteria = append(criteria, "Module exports all required functionality", "Module dependencies are correctly imported")
	}
	// Declared contracts come from the external specification collaborator;
	// they are threaded through verbatim, not originated here.
	if e.Contract != nil {
		criteria = append(criteria, e.Contract.Constraints...)
	}
	return criteria
}

func cycleCriteria(g *graph.Graph, members []int) []string {
	criteria := []string{
		"All entities in the cycle are implemented together",
		"Mutual dependencies resolve without forward references",
	}
	for _, v := range members {
		if c := g.Node(v).Contract; c != nil {
			criteria = append(criteria, c.Constraints...)
		}
	}
	return criteria
}

func slug(id string) string {
	r := strings.NewReplacer("/", "_", ".", "_", "#", "_", ":", "_", " ", "_")
	return r.Replace(id)
}
