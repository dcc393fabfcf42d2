package services

import (
	"kgexplorer/domain/core/aggregates"
	"kgexplorer/domain/core/entities"
	"kgexplorer/domain/core/raw"
	"kgexplorer/domain/core/valueobjects"
)

// PathGraphBuilder turns path-discovery results into graph state
type PathGraphBuilder struct {
	transform   *GraphTransform
	merge       *GraphMergeEngine
	placeholder entities.EdgeType
	confidence  float64
}

// NewPathGraphBuilder creates a builder. placeholder is the edge type used for hops
// whose relationship label was not reported.
func NewPathGraphBuilder(transform *GraphTransform, merge *GraphMergeEngine, placeholder string, confidence float64) *PathGraphBuilder {
	return &PathGraphBuilder{
		transform:   transform,
		merge:       merge,
		placeholder: entities.EdgeType(placeholder),
		confidence:  confidence,
	}
}

// SelectBestPath returns the first path in response order.
// The upstream API is assumed to order paths by score; ties keep their source order.
func (b *PathGraphBuilder) SelectBestPath(paths []raw.Path) (raw.Path, bool) {
	if len(paths) == 0 {
		return raw.Path{}, false
	}
	return paths[0], true
}

// PathToGraph returns the nodes of a path and one edge per consecutive pair
func (b *PathGraphBuilder) PathToGraph(path raw.Path) *aggregates.GraphState {
	g := b.transform.Transform(path.Nodes, nil)
	for _, edge := range b.PathEdges(path) {
		if !containsKey(g.Links, edge.Key()) {
			g.Links = append(g.Links, edge)
		}
	}
	return g
}

// PathsToGraph add-merges every path in order. Zero paths yield an empty graph.
func (b *PathGraphBuilder) PathsToGraph(paths []raw.Path) *aggregates.GraphState {
	graphs := make([]*aggregates.GraphState, 0, len(paths))
	for _, p := range paths {
		graphs = append(graphs, b.PathToGraph(p))
	}
	return b.merge.MergeAll(graphs...)
}

// PathEdges synthesizes the edges between consecutive path nodes.
// A reversed hop yields an edge pointing back along the path.
func (b *PathGraphBuilder) PathEdges(path raw.Path) []entities.Edge {
	if len(path.Nodes) < 2 {
		return []entities.Edge{}
	}

	edges := make([]entities.Edge, 0, len(path.Nodes)-1)
	for i := 0; i+1 < len(path.Nodes); i++ {
		edgeType := b.placeholder
		if i < len(path.Relationships) && path.Relationships[i] != "" {
			edgeType = entities.EdgeType(path.Relationships[i])
		}
		source, target := path.Nodes[i].Key(), path.Nodes[i+1].Key()
		if path.HopReversed(i) {
			source, target = target, source
		}
		edges = append(edges, entities.Edge{
			SourceID:   source,
			TargetID:   target,
			Type:       edgeType,
			Confidence: b.confidence,
		})
	}
	return edges
}

// PathNodeIDs returns the distinct node ids of a path in path order
func (b *PathGraphBuilder) PathNodeIDs(path raw.Path) []string {
	seen := make(map[string]struct{}, len(path.Nodes))
	ids := make([]string, 0, len(path.Nodes))
	for _, n := range path.Nodes {
		id := n.Key()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// EnrichPath combines the neighborhoods fetched around each path node with the path itself.
// Neighborhoods are add-merged in path order, then path nodes missing from every
// neighborhood are appended, then path edges not present in any neighborhood.
func (b *PathGraphBuilder) EnrichPath(path raw.Path, neighborhoods []*aggregates.GraphState) *aggregates.GraphState {
	out := b.merge.MergeAll(neighborhoods...)

	pathGraph := b.transform.Transform(path.Nodes, nil)
	out = b.merge.Merge(out, pathGraph, valueobjects.LoadModeAdd)

	edges := aggregates.NewGraphState(nil, b.PathEdges(path))
	return b.merge.Merge(out, edges, valueobjects.LoadModeAdd)
}

func containsKey(links []entities.Edge, key entities.EdgeKey) bool {
	for _, e := range links {
		if e.Key() == key {
			return true
		}
	}
	return false
}
