package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kgexplorer/application/ports"
	"kgexplorer/application/queries"
	"kgexplorer/application/queries/bus"
	"kgexplorer/domain/core/aggregates"
	"kgexplorer/domain/core/raw"
	"kgexplorer/domain/services"
	"kgexplorer/pkg/errors"
)

// FindPathHandler handles path discovery and path enrichment
type FindPathHandler struct {
	source         ports.GraphDataSource
	neighborhoods  *SubgraphHandler
	builder        *services.PathGraphBuilder
	maxConcurrency int
	logger         *zap.Logger
}

// NewFindPathHandler creates a new path handler. maxConcurrency bounds the enrichment
// fan-out; zero means one fetch per path node at once.
func NewFindPathHandler(
	source ports.GraphDataSource,
	neighborhoods *SubgraphHandler,
	builder *services.PathGraphBuilder,
	maxConcurrency int,
	logger *zap.Logger,
) *FindPathHandler {
	return &FindPathHandler{
		source:         source,
		neighborhoods:  neighborhoods,
		builder:        builder,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// Handle executes a FindPathQuery
func (h *FindPathHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.FindPathQuery)
	if !ok {
		return nil, fmt.Errorf("path handler cannot handle %T", query)
	}

	connection, err := h.source.FindConnection(ctx, q.FromID, q.ToID, q.MaxHops)
	if err != nil {
		return nil, errors.FromFetchError(UpstreamService, fmt.Errorf("failed to find path %s->%s: %w", q.FromID, q.ToID, err))
	}

	var paths []raw.Path
	if connection != nil {
		paths = connection.Paths
	}

	// No connection is a valid, empty answer
	if len(paths) == 0 {
		h.logger.Debug("No path found",
			zap.String("fromID", q.FromID),
			zap.String("toID", q.ToID),
			zap.Int("maxHops", q.MaxHops),
		)
		return &queries.GraphResult{Graph: aggregates.EmptyGraph()}, nil
	}

	if !q.Enriched() {
		return &queries.GraphResult{
			Graph:     h.builder.PathsToGraph(paths),
			PathCount: len(paths),
		}, nil
	}

	best, _ := h.builder.SelectBestPath(paths)
	graph, truncated, err := h.enrich(ctx, best, q)
	if err != nil {
		return nil, err
	}

	return &queries.GraphResult{
		Graph:     graph,
		Truncated: truncated,
		PathCount: len(paths),
	}, nil
}

// enrich fetches the neighborhood of every node on the path concurrently.
// The first failure cancels the remaining fetches and fails the whole enrichment.
func (h *FindPathHandler) enrich(ctx context.Context, path raw.Path, q queries.FindPathQuery) (*aggregates.GraphState, bool, error) {
	nodeIDs := h.builder.PathNodeIDs(path)
	neighborhoods := make([]*aggregates.GraphState, len(nodeIDs))
	truncated := make([]bool, len(nodeIDs))

	g, gctx := errgroup.WithContext(ctx)
	if h.maxConcurrency > 0 {
		g.SetLimit(h.maxConcurrency)
	}

	for i, nodeID := range nodeIDs {
		i, nodeID := i, nodeID
		g.Go(func() error {
			result, err := h.neighborhoods.FetchNeighborhood(gctx, nodeID, q.Depth, q.Limit)
			if err != nil {
				return err
			}
			neighborhoods[i] = result.Graph
			truncated[i] = result.Truncated
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		h.logger.Warn("Path enrichment failed",
			zap.String("fromID", q.FromID),
			zap.String("toID", q.ToID),
			zap.Int("pathNodes", len(nodeIDs)),
			zap.Error(err),
		)
		return nil, false, err
	}

	anyTruncated := false
	for _, t := range truncated {
		anyTruncated = anyTruncated || t
	}

	graph := h.builder.EnrichPath(path, neighborhoods)
	h.logger.Debug("Path enriched",
		zap.String("fromID", q.FromID),
		zap.String("toID", q.ToID),
		zap.Int("pathNodes", len(nodeIDs)),
		zap.Int("nodeCount", graph.NodeCount()),
		zap.Int("edgeCount", graph.EdgeCount()),
	)
	return graph, anyTruncated, nil
}
