package aggregates

import (
	"kgexplorer/domain/core/entities"
)

// GraphState is the renderer-neutral graph all explorers observe.
// Slice order is insertion order and is significant for stable rendering.
type GraphState struct {
	Nodes []entities.Node `json:"nodes"`
	Links []entities.Edge `json:"links"`
}

// NewGraphState creates a graph state from nodes and links
func NewGraphState(nodes []entities.Node, links []entities.Edge) *GraphState {
	if nodes == nil {
		nodes = []entities.Node{}
	}
	if links == nil {
		links = []entities.Edge{}
	}
	return &GraphState{Nodes: nodes, Links: links}
}

// EmptyGraph returns a valid graph with no nodes and no links.
// It is distinct from a nil *GraphState, which means no query has been issued.
func EmptyGraph() *GraphState {
	return NewGraphState(nil, nil)
}

// IsEmpty reports whether the graph holds no nodes and no links
func (g *GraphState) IsEmpty() bool {
	return g == nil || (len(g.Nodes) == 0 && len(g.Links) == 0)
}

// NodeCount returns the number of nodes
func (g *GraphState) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

// EdgeCount returns the number of links
func (g *GraphState) EdgeCount() int {
	if g == nil {
		return 0
	}
	return len(g.Links)
}

// Clone returns a deep copy of the graph
func (g *GraphState) Clone() *GraphState {
	if g == nil {
		return nil
	}
	nodes := make([]entities.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = n.Clone()
	}
	links := make([]entities.Edge, len(g.Links))
	for i, e := range g.Links {
		links[i] = e.Clone()
	}
	return &GraphState{Nodes: nodes, Links: links}
}

// NodeIDSet returns the set of node ids present in the graph
func (g *GraphState) NodeIDSet() map[string]struct{} {
	ids := make(map[string]struct{}, g.NodeCount())
	if g == nil {
		return ids
	}
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}

// EdgeKeySet returns the set of edge identity keys present in the graph
func (g *GraphState) EdgeKeySet() map[entities.EdgeKey]struct{} {
	keys := make(map[entities.EdgeKey]struct{}, g.EdgeCount())
	if g == nil {
		return keys
	}
	for _, e := range g.Links {
		keys[e.Key()] = struct{}{}
	}
	return keys
}

// HasNode checks if a node exists in the graph
func (g *GraphState) HasNode(nodeID string) bool {
	_, ok := g.FindNode(nodeID)
	return ok
}

// FindNode returns the node with the given id
func (g *GraphState) FindNode(nodeID string) (entities.Node, bool) {
	if g == nil {
		return entities.Node{}, false
	}
	for _, n := range g.Nodes {
		if n.ID == nodeID {
			return n, true
		}
	}
	return entities.Node{}, false
}

// Neighbors returns the ids adjacent to a node, ignoring edge direction, in link order
func (g *GraphState) Neighbors(nodeID string) []string {
	if g == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range g.Links {
		var next string
		switch {
		case e.SourceID == nodeID:
			next = e.TargetID
		case e.TargetID == nodeID:
			next = e.SourceID
		default:
			continue
		}
		if !seen[next] {
			seen[next] = true
			out = append(out, next)
		}
	}
	return out
}

// DanglingEdges returns links whose endpoints are not in the node set
func (g *GraphState) DanglingEdges() []entities.Edge {
	if g == nil {
		return nil
	}
	ids := g.NodeIDSet()
	var dangling []entities.Edge
	for _, e := range g.Links {
		_, okSource := ids[e.SourceID]
		_, okTarget := ids[e.TargetID]
		if !okSource || !okTarget {
			dangling = append(dangling, e)
		}
	}
	return dangling
}

// GetClusters identifies clusters of connected nodes, treating links as undirected.
// Clusters and their members follow node insertion order.
func (g *GraphState) GetClusters() [][]string {
	if g == nil {
		return nil
	}

	adjacency := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Links {
		adjacency[e.SourceID] = append(adjacency[e.SourceID], e.TargetID)
		adjacency[e.TargetID] = append(adjacency[e.TargetID], e.SourceID)
	}

	ids := g.NodeIDSet()
	visited := make(map[string]bool, len(g.Nodes))
	var clusters [][]string

	for _, n := range g.Nodes {
		if visited[n.ID] {
			continue
		}
		cluster := []string{}
		stack := []string{n.ID}
		visited[n.ID] = true
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cluster = append(cluster, current)
			for _, next := range adjacency[current] {
				// Only nodes that are part of the graph count towards clusters
				if _, ok := ids[next]; !ok || visited[next] {
					continue
				}
				visited[next] = true
				stack = append(stack, next)
			}
		}
		clusters = append(clusters, cluster)
	}

	return clusters
}
