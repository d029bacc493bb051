package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"reweave/internal/graph"
	"reweave/internal/types"
)

func buildGraph(t *testing.T, ids []string, edges [][2]string) *graph.Graph {
	t.Helper()
	entities := make([]types.Entity, 0, len(ids))
	for _, id := range ids {
		entities = append(entities, types.Entity{ID: id, Name: id, Kind: types.KindModule})
	}
	deps := make([]types.DependencyRef, 0, len(edges))
	for _, e := range edges {
		deps = append(deps, types.DependencyRef{Source: e[0], Target: e[1]})
	}
	g, diags := graph.Build(entities, deps)
	require.Empty(t, diags)
	return g
}

func TestAnalyze_EmptyGraph(t *testing.T) {
	g, _ := graph.Build(nil, nil)
	res, err := Analyze(context.Background(), g, Options{})
	require.NoError(t, err)
	require.Empty(t, res.Centrality)
	require.Empty(t, res.CoreComponents)
	require.Empty(t, res.GraphWideImpact)
}

func TestImpact_Chain(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	res, err := Analyze(context.Background(), g, Options{})
	require.NoError(t, err)

	require.Equal(t, 2, res.ImpactSize("a"))
	require.Equal(t, []string{"b", "c"}, res.Impact("a"))
	require.Equal(t, 1, res.ImpactSize("b"))
	require.Equal(t, 0, res.ImpactSize("c"))
	require.Empty(t, res.Impact("c"))
}

func TestImpact_CycleMembersShareSetIncludingSelf(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "a"}, {"a", "c"}})
	res, err := Analyze(context.Background(), g, Options{})
	require.NoError(t, err)

	// a and b form a cycle; each reaches the other, itself, and c.
	require.Equal(t, 3, res.ImpactSize("a"))
	require.Equal(t, []string{"a", "b", "c"}, res.Impact("a"))
	require.Equal(t, res.Impact("a"), res.Impact("b"))
}

func TestImpact_RepositoryWideCycleReported(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})
	res, err := Analyze(context.Background(), g, Options{})
	require.NoError(t, err)

	require.Equal(t, []string{"a", "b", "c"}, res.GraphWideImpact)
	for _, id := range []string{"a", "b", "c"} {
		require.Equal(t, 3, res.ImpactSize(id))
	}
}

func TestCentrality_HubOutranksLeaves(t *testing.T) {
	g := buildGraph(t, []string{"hub", "x", "y", "z"},
		[][2]string{{"hub", "x"}, {"hub", "y"}, {"hub", "z"}})
	res, err := Analyze(context.Background(), g, Options{})
	require.NoError(t, err)

	for _, leaf := range []string{"x", "y", "z"} {
		require.Greater(t, res.Centrality["hub"], res.Centrality[leaf],
			"hub should outrank leaf %s", leaf)
	}
}

func TestCentrality_LargeGraphFallsBackToDegree(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	res, err := Analyze(context.Background(), g, Options{BetweennessMaxNodes: 1})
	require.NoError(t, err)

	// Degree only: a and c have one incident edge, b has two.
	require.InDelta(t, 0.25, res.Centrality["a"], 1e-9)
	require.InDelta(t, 0.5, res.Centrality["b"], 1e-9)
	require.InDelta(t, 0.25, res.Centrality["c"], 1e-9)
}

func TestCommunities_TwoClustersWithBridge(t *testing.T) {
	g := buildGraph(t,
		[]string{"a1", "a2", "a3", "b1", "b2", "b3"},
		[][2]string{
			{"a1", "a2"}, {"a2", "a3"}, {"a1", "a3"},
			{"b1", "b2"}, {"b2", "b3"}, {"b1", "b3"},
			{"a3", "b1"},
		})
	res, err := Analyze(context.Background(), g, Options{})
	require.NoError(t, err)

	require.Equal(t, res.Communities["a1"], res.Communities["a2"])
	require.Equal(t, res.Communities["a1"], res.Communities["a3"])
	require.Equal(t, res.Communities["b1"], res.Communities["b2"])
	require.Equal(t, res.Communities["b1"], res.Communities["b3"])
	require.NotEqual(t, res.Communities["a1"], res.Communities["b1"])
	// Labels are dense and ordered by smallest member.
	require.Equal(t, 0, res.Communities["a1"])
	require.Equal(t, 1, res.Communities["b1"])
}

func TestCoreComponents_TopKAndOrder(t *testing.T) {
	g := buildGraph(t, []string{"core", "mid", "leaf1", "leaf2"},
		[][2]string{{"core", "mid"}, {"mid", "leaf1"}, {"mid", "leaf2"}, {"core", "leaf1"}})
	res, err := Analyze(context.Background(), g, Options{CoreTopK: 2})
	require.NoError(t, err)

	require.Len(t, res.CoreComponents, 2)
	first := res.CoreComponents[0]
	require.GreaterOrEqual(t, res.CoreScores[first], res.CoreScores[res.CoreComponents[1]])
	// Impact reaches the whole rest of the graph from mid and core; the
	// leaf nodes cannot make the cut.
	require.NotContains(t, res.CoreComponents, "leaf1")
	require.NotContains(t, res.CoreComponents, "leaf2")
}

func TestKnowledge_ExportCarriesAnalytics(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	res, err := Analyze(context.Background(), g, Options{})
	require.NoError(t, err)

	kg := res.Knowledge()
	require.Len(t, kg.Nodes, 2)
	require.Len(t, kg.Edges, 1)
	require.Equal(t, "a", kg.Edges[0].Source)
	require.Equal(t, "b", kg.Edges[0].Target)
	require.Contains(t, kg.Centrality, "a")
	require.Contains(t, kg.Communities, "b")
}
