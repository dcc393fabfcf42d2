package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"kgexplorer/application/ports"
	"kgexplorer/application/queries"
	"kgexplorer/application/queries/bus"
	"kgexplorer/domain/services"
	"kgexplorer/pkg/errors"
)

// UpstreamService names the graph API in errors and logs
const UpstreamService = "graph-api"

// SubgraphHandler handles concept and neighborhood queries
type SubgraphHandler struct {
	source    ports.GraphDataSource
	transform *services.GraphTransform
	logger    *zap.Logger
}

// NewSubgraphHandler creates a new subgraph handler
func NewSubgraphHandler(source ports.GraphDataSource, transform *services.GraphTransform, logger *zap.Logger) *SubgraphHandler {
	return &SubgraphHandler{
		source:    source,
		transform: transform,
		logger:    logger,
	}
}

// Handle executes ConceptQuery and SubgraphQuery
func (h *SubgraphHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	switch q := query.(type) {
	case queries.ConceptQuery:
		return h.FetchNeighborhood(ctx, q.ConceptID, q.Depth, q.Limit)
	case queries.SubgraphQuery:
		return h.FetchNeighborhood(ctx, q.CenterID, q.Depth, q.Limit)
	default:
		return nil, fmt.Errorf("subgraph handler cannot handle %T", query)
	}
}

// FetchNeighborhood fetches and normalizes the neighborhood of centerID.
// A truncated response is a successful result.
func (h *SubgraphHandler) FetchNeighborhood(ctx context.Context, centerID string, depth, limit int) (*queries.GraphResult, error) {
	rawGraph, err := h.source.GetSubgraph(ctx, centerID, depth, limit)
	if err != nil {
		return nil, errors.FromFetchError(UpstreamService, fmt.Errorf("failed to fetch subgraph for %s: %w", centerID, err))
	}

	graph := h.transform.TransformGraph(rawGraph)
	truncated := rawGraph != nil && rawGraph.Truncated
	if truncated {
		h.logger.Info("Subgraph response truncated",
			zap.String("centerID", centerID),
			zap.Int("depth", depth),
			zap.Int("limit", limit),
			zap.Int("nodeCount", graph.NodeCount()),
		)
	}

	h.logger.Debug("Subgraph fetched",
		zap.String("centerID", centerID),
		zap.Int("depth", depth),
		zap.Int("nodeCount", graph.NodeCount()),
		zap.Int("edgeCount", graph.EdgeCount()),
	)

	return &queries.GraphResult{Graph: graph, Truncated: truncated}, nil
}
