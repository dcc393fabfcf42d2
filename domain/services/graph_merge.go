package services

import (
	"kgexplorer/domain/core/aggregates"
	"kgexplorer/domain/core/entities"
	"kgexplorer/domain/core/valueobjects"
)

// MergeResult summarizes a merge for logging and metrics
type MergeResult struct {
	Graph        *aggregates.GraphState
	Replaced     bool
	AddedNodes   int
	AddedLinks   int
	SkippedNodes int
	SkippedLinks int
}

// GraphMergeEngine produces the next canonical graph from the current one and a fetch result
type GraphMergeEngine struct{}

// NewGraphMergeEngine creates a merge engine
func NewGraphMergeEngine() *GraphMergeEngine {
	return &GraphMergeEngine{}
}

// Merge combines current and incoming according to the load mode.
// clean discards current. add keeps current and appends only unseen nodes and edge keys,
// so merging the same incoming graph twice changes nothing the second time.
func (m *GraphMergeEngine) Merge(current, incoming *aggregates.GraphState, mode valueobjects.LoadMode) *aggregates.GraphState {
	return m.MergeWithStats(current, incoming, mode).Graph
}

// MergeWithStats is Merge plus a summary of what changed
func (m *GraphMergeEngine) MergeWithStats(current, incoming *aggregates.GraphState, mode valueobjects.LoadMode) MergeResult {
	if incoming == nil {
		incoming = aggregates.EmptyGraph()
	}

	if mode != valueobjects.LoadModeAdd || current.IsEmpty() {
		replaced := incoming.Clone()
		return MergeResult{
			Graph:      replaced,
			Replaced:   true,
			AddedNodes: len(replaced.Nodes),
			AddedLinks: len(replaced.Links),
		}
	}

	merged := current.Clone()
	result := MergeResult{Graph: merged}

	nodeIDs := current.NodeIDSet()
	for _, node := range incoming.Nodes {
		if _, exists := nodeIDs[node.ID]; exists {
			result.SkippedNodes++
			continue
		}
		nodeIDs[node.ID] = struct{}{}
		merged.Nodes = append(merged.Nodes, node.Clone())
		result.AddedNodes++
	}

	edgeKeys := current.EdgeKeySet()
	for _, edge := range incoming.Links {
		key := edge.Key()
		if _, exists := edgeKeys[key]; exists {
			result.SkippedLinks++
			continue
		}
		edgeKeys[key] = struct{}{}
		merged.Links = append(merged.Links, edge.Clone())
		result.AddedLinks++
	}

	return result
}

// MergeAll add-merges a sequence of graphs in order, starting from an empty graph
func (m *GraphMergeEngine) MergeAll(graphs ...*aggregates.GraphState) *aggregates.GraphState {
	out := aggregates.EmptyGraph()
	for _, g := range graphs {
		out = m.Merge(out, g, valueobjects.LoadModeAdd)
	}
	return out
}

// HasUniqueEdgeKeys reports whether no two links share an identity key
func HasUniqueEdgeKeys(g *aggregates.GraphState) bool {
	if g == nil {
		return true
	}
	seen := make(map[entities.EdgeKey]struct{}, len(g.Links))
	for _, e := range g.Links {
		if _, dup := seen[e.Key()]; dup {
			return false
		}
		seen[e.Key()] = struct{}{}
	}
	return true
}
