package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kgexplorer/application/ports/mocks"
	"kgexplorer/application/queries"
	"kgexplorer/domain/services"
	apperrors "kgexplorer/pkg/errors"
)

func newTestSubgraphHandler(source *mocks.MockGraphDataSource) *SubgraphHandler {
	return NewSubgraphHandler(source, services.NewGraphTransform(1.0), zap.NewNop())
}

func TestSubgraphHandler_Handle_Concept(t *testing.T) {
	// Arrange
	ctx := context.Background()
	source := new(mocks.MockGraphDataSource)
	source.On("GetSubgraph", ctx, "C1", 1, 500).Return(
		mocks.NewRawGraphBuilder().WithNodes("C1", "C2").WithEdge("C1", "C2", "derives").Build(), nil)
	handler := newTestSubgraphHandler(source)

	// Act
	result, err := handler.Handle(ctx, queries.ConceptQuery{ConceptID: "C1", Depth: 1, Limit: 500})

	// Assert
	require.NoError(t, err)
	graphResult := result.(*queries.GraphResult)
	assert.Equal(t, 2, graphResult.Graph.NodeCount())
	assert.Equal(t, 1, graphResult.Graph.EdgeCount())
	assert.False(t, graphResult.Truncated)
	source.AssertExpectations(t)
}

func TestSubgraphHandler_Handle_TruncatedIsSuccess(t *testing.T) {
	// Arrange
	ctx := context.Background()
	source := new(mocks.MockGraphDataSource)
	source.On("GetSubgraph", ctx, "C1", 2, 2).Return(
		mocks.NewRawGraphBuilder().WithNodes("C1", "C2").Truncated().Build(), nil)
	handler := newTestSubgraphHandler(source)

	// Act
	result, err := handler.Handle(ctx, queries.SubgraphQuery{CenterID: "C1", Depth: 2, Limit: 2})

	// Assert
	require.NoError(t, err)
	assert.True(t, result.(*queries.GraphResult).Truncated)
}

func TestSubgraphHandler_Handle_FetchFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	source := new(mocks.MockGraphDataSource)
	source.On("GetSubgraph", ctx, "C1", 2, 10).Return(nil, errors.New("connection refused"))
	handler := newTestSubgraphHandler(source)

	// Act
	result, err := handler.Handle(ctx, queries.SubgraphQuery{CenterID: "C1", Depth: 2, Limit: 10})

	// Assert
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, apperrors.IsExternal(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSubgraphHandler_Handle_NilResponse(t *testing.T) {
	ctx := context.Background()
	source := new(mocks.MockGraphDataSource)
	source.On("GetSubgraph", ctx, "C1", 1, 10).Return(nil, nil)
	handler := newTestSubgraphHandler(source)

	result, err := handler.FetchNeighborhood(ctx, "C1", 1, 10)

	require.NoError(t, err)
	require.NotNil(t, result.Graph)
	assert.True(t, result.Graph.IsEmpty())
}

func TestSubgraphHandler_Handle_WrongQuery(t *testing.T) {
	handler := newTestSubgraphHandler(new(mocks.MockGraphDataSource))

	_, err := handler.Handle(context.Background(), queries.FindPathQuery{})

	assert.Error(t, err)
}
