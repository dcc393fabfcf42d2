package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kgexplorer/domain/core/entities"
)

func TestComputeGraphStats(t *testing.T) {
	// Arrange
	a, b, c, d := node("a"), node("b"), node("c"), node("d")
	a.Group, b.Group, c.Group = "physics", "physics", "biology"
	g := graphOf([]entities.Node{a, b, c, d},
		edge("a", "b", "knows"),
		edge("b", "c", "knows"),
		edge("c", "zzz", "cites"),
	)

	// Act
	stats := ComputeGraphStats(g)

	// Assert
	assert.Equal(t, 4, stats.NodeCount)
	assert.Equal(t, 3, stats.EdgeCount)
	assert.Equal(t, 2, stats.ClusterCount)
	assert.Equal(t, 1, stats.DanglingEdges)
	assert.InDelta(t, 0.5, stats.Density, 1e-9)
	assert.Equal(t, []LabelCount{{"physics", 2}, {"biology", 1}, {"unknown", 1}}, stats.Groups)
	assert.Equal(t, []LabelCount{{"knows", 2}, {"cites", 1}}, stats.EdgeTypes)
}

func TestComputeGraphStats_Nil(t *testing.T) {
	stats := ComputeGraphStats(nil)

	assert.Equal(t, 0, stats.NodeCount)
	assert.Zero(t, stats.Density)
	assert.Empty(t, stats.Groups)
}
