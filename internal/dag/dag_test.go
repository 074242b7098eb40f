package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds 0 -> 1 -> ... -> n-1.
func chain(n int) *Graph[int, string] {
	g := NewGraph[int, string]()
	for i := range n {
		g.AddNode(i, "")
	}
	for i := 1; i < n; i++ {
		_ = g.AddEdge(i-1, i)
	}
	return g
}

// diamond builds 0 -> {1, 2} -> 3 plus an isolated 4.
func diamond() *Graph[int, string] {
	g := NewGraph[int, string]()
	for i := range 5 {
		g.AddNode(i, "")
	}
	_ = g.AddEdge(0, 1)
	_ = g.AddEdge(0, 2)
	_ = g.AddEdge(1, 3)
	_ = g.AddEdge(2, 3)
	return g
}

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := NewGraph[int, string]()
	g.AddNode(1, "a = 1")
	g.AddNode(2, "b = a")
	g.AddNode(2, "b = 2*a")

	require.NoError(t, g.AddEdge(1, 2))
	require.NoError(t, g.AddEdge(1, 2))

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount(), "duplicate edges are ignored")

	n, ok := g.GetNode(2)
	require.True(t, ok)
	assert.Equal(t, "b = 2*a", n.Data)

	assert.Equal(t, []int{1}, g.GetParents(2))
	assert.Equal(t, []int{2}, g.GetChildren(1))
}

func TestGraph_AddEdge_Errors(t *testing.T) {
	g := NewGraph[int, string]()
	g.AddNode(0, "")

	tests := []struct {
		name           string
		parent, child  int
		wantErrContain string
	}{
		{"missing child", 0, 7, "child node 7"},
		{"missing parent", 7, 0, "parent node 7"},
		{"self loop", 0, 0, "self-loop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.AddEdge(tt.parent, tt.child)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErrContain)
		})
	}
}

func TestGraph_HasCycle(t *testing.T) {
	g := chain(3)
	hasCycle, path := g.HasCycle()
	assert.False(t, hasCycle)
	assert.Empty(t, path)

	require.NoError(t, g.AddEdge(2, 0))
	hasCycle, path = g.HasCycle()
	assert.True(t, hasCycle)
	assert.NotEmpty(t, path)

	_, err := g.TopologicalSort()
	require.Error(t, err)
	_, err = g.GetExecutionLevels()
	require.Error(t, err)
}

func TestGraph_TopologicalSort(t *testing.T) {
	sorted, err := diamond().TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, sorted)

	g := NewGraph[int, string]()
	for i := range 3 {
		g.AddNode(i, "")
	}
	// 0 depends on 2
	require.NoError(t, g.AddEdge(2, 0))
	sorted, err = g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, sorted)
}

func TestGraph_GetExecutionLevels(t *testing.T) {
	levels, err := diamond().GetExecutionLevels()
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 4}, {1, 2}, {3}}, levels)

	levels, err = NewGraph[int, string]().GetExecutionLevels()
	require.NoError(t, err)
	assert.Empty(t, levels)
}

func TestGraph_GetAffectedNodes(t *testing.T) {
	g := diamond()
	assert.Equal(t, []int{1, 3}, g.GetAffectedNodes([]int{1}))
	assert.Equal(t, []int{0, 1, 2, 3}, g.GetAffectedNodes([]int{0, 99}))
}

func TestGraph_GetUpstreamNodes(t *testing.T) {
	g := diamond()
	assert.Equal(t, []int{0, 1, 2}, g.GetUpstreamNodes(3))
	assert.Empty(t, g.GetUpstreamNodes(4))

	// members of a cycle are their own upstream
	c := chain(3)
	require.NoError(t, c.AddEdge(2, 0))
	assert.Equal(t, []int{0, 1, 2}, c.GetUpstreamNodes(1))
}

func TestGraph_RootsAndLeaves(t *testing.T) {
	g := diamond()
	assert.Equal(t, []int{0, 4}, g.GetRoots())
	assert.Equal(t, []int{3, 4}, g.GetLeaves())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, g.IDs())
}

func TestGraph_Subgraph(t *testing.T) {
	g := chain(4)
	g.AddNode(1, "one")

	sub := g.Subgraph([]int{1, 2, 42})
	assert.Equal(t, 2, sub.NodeCount())
	assert.Equal(t, 1, sub.EdgeCount())
	assert.Equal(t, []int{2}, sub.GetChildren(1))

	n, ok := sub.GetNode(1)
	require.True(t, ok)
	assert.Equal(t, "one", n.Data)
}

func TestGraph_StringKeys(t *testing.T) {
	g := NewGraph[string, struct{}]()
	g.AddNode("membrane.v", struct{}{})
	g.AddNode("sodium.i_na", struct{}{})
	require.NoError(t, g.AddEdge("sodium.i_na", "membrane.v"))

	sorted, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"sodium.i_na", "membrane.v"}, sorted)
}
