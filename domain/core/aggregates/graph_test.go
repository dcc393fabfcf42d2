package aggregates

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgexplorer/domain/core/entities"
)

func testGraph() *GraphState {
	return NewGraphState(
		[]entities.Node{
			{ID: "a", Label: "A"},
			{ID: "b", Label: "B"},
			{ID: "c", Label: "C"},
			{ID: "d", Label: "D"},
		},
		[]entities.Edge{
			{SourceID: "a", TargetID: "b", Type: "knows"},
			{SourceID: "c", TargetID: "b", Type: "knows"},
			{SourceID: "d", TargetID: "x", Type: "cites"},
		},
	)
}

func TestGraphState_NilAndEmpty(t *testing.T) {
	var none *GraphState

	assert.True(t, none.IsEmpty())
	assert.Equal(t, 0, none.NodeCount())
	assert.Nil(t, none.Clone())
	assert.False(t, none.HasNode("a"))

	empty := EmptyGraph()
	assert.True(t, empty.IsEmpty())
	assert.NotNil(t, empty.Nodes)
	assert.NotNil(t, empty.Links)
}

func TestGraphState_EmptyGraph_MarshalsAsEmptyArrays(t *testing.T) {
	data, err := json.Marshal(EmptyGraph())

	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[],"links":[]}`, string(data))
}

func TestGraphState_Clone_IsDeep(t *testing.T) {
	// Arrange
	g := testGraph()
	g.Nodes[0] = g.Nodes[0].WithDegree(3)

	// Act
	clone := g.Clone()
	*clone.Nodes[0].Degree = 10
	clone.Links[0].Type = "changed"

	// Assert
	assert.Equal(t, 3, *g.Nodes[0].Degree)
	assert.Equal(t, entities.EdgeType("knows"), g.Links[0].Type)
}

func TestGraphState_Neighbors(t *testing.T) {
	g := testGraph()

	assert.Equal(t, []string{"a", "c"}, g.Neighbors("b"))
	assert.Equal(t, []string{"b"}, g.Neighbors("a"))
	assert.Empty(t, g.Neighbors("zzz"))
}

func TestGraphState_DanglingEdges(t *testing.T) {
	g := testGraph()

	dangling := g.DanglingEdges()

	require.Len(t, dangling, 1)
	assert.Equal(t, "x", dangling[0].TargetID)
}

func TestGraphState_GetClusters(t *testing.T) {
	g := testGraph()

	clusters := g.GetClusters()

	require.Len(t, clusters, 2)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, clusters[0])
	assert.Equal(t, []string{"d"}, clusters[1])
}
