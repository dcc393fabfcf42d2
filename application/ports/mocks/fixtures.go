package mocks

import (
	"kgexplorer/domain/core/raw"
)

// RawNode builds a raw node record keyed by concept_id
func RawNode(id string) raw.Node {
	return raw.Node{ConceptID: id, Label: id}
}

// RawEdge builds a raw edge record with bare endpoint ids
func RawEdge(source, target, relType string) raw.Edge {
	return raw.Edge{Source: raw.NewRef(source), Target: raw.NewRef(target), Type: relType}
}

// RawGraphBuilder builds raw subgraph responses
type RawGraphBuilder struct {
	graph raw.Graph
}

// NewRawGraphBuilder creates an empty builder
func NewRawGraphBuilder() *RawGraphBuilder {
	return &RawGraphBuilder{}
}

// WithNodes adds nodes by id
func (b *RawGraphBuilder) WithNodes(ids ...string) *RawGraphBuilder {
	for _, id := range ids {
		b.graph.Nodes = append(b.graph.Nodes, RawNode(id))
	}
	return b
}

// WithEdge adds an edge
func (b *RawGraphBuilder) WithEdge(source, target, relType string) *RawGraphBuilder {
	b.graph.Edges = append(b.graph.Edges, RawEdge(source, target, relType))
	return b
}

// Truncated marks the response as capped
func (b *RawGraphBuilder) Truncated() *RawGraphBuilder {
	b.graph.Truncated = true
	return b
}

// Build returns the response
func (b *RawGraphBuilder) Build() *raw.Graph {
	g := b.graph
	return &g
}

// RawPath builds a path through ids with the given hop labels
func RawPath(relationships []string, ids ...string) raw.Path {
	nodes := make([]raw.Node, len(ids))
	for i, id := range ids {
		nodes[i] = RawNode(id)
	}
	return raw.Path{Nodes: nodes, Relationships: relationships, Hops: len(ids) - 1}
}

// Connection wraps paths in a path-discovery response
func Connection(paths ...raw.Path) *raw.ConnectionResult {
	return &raw.ConnectionResult{Paths: paths, Count: len(paths)}
}
