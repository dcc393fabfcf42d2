package services

import (
	"kgexplorer/domain/core/aggregates"
	"kgexplorer/domain/core/entities"
	"kgexplorer/domain/core/raw"
)

// GraphTransform normalizes raw API records into the renderer-neutral graph model.
// It is referentially transparent: the same input always yields a structurally equal output.
type GraphTransform struct {
	defaultConfidence float64
}

// NewGraphTransform creates a transform. defaultConfidence is used for edges that report none.
func NewGraphTransform(defaultConfidence float64) *GraphTransform {
	return &GraphTransform{defaultConfidence: defaultConfidence}
}

// Transform maps raw nodes and edges to a GraphState.
// Nodes without an identifier cannot be referenced and are skipped; repeated node ids and
// edge keys collapse to their first occurrence. Edges are otherwise kept as-is, including
// edges whose endpoints are not in the node set.
func (t *GraphTransform) Transform(rawNodes []raw.Node, rawEdges []raw.Edge) *aggregates.GraphState {
	nodes := make([]entities.Node, 0, len(rawNodes))
	seenNodes := make(map[string]struct{}, len(rawNodes))
	for _, rn := range rawNodes {
		node, ok := t.TransformNode(rn)
		if !ok {
			continue
		}
		if _, dup := seenNodes[node.ID]; dup {
			continue
		}
		seenNodes[node.ID] = struct{}{}
		nodes = append(nodes, node)
	}

	links := make([]entities.Edge, 0, len(rawEdges))
	seenLinks := make(map[entities.EdgeKey]struct{}, len(rawEdges))
	for _, re := range rawEdges {
		edge := t.TransformEdge(re)
		key := edge.Key()
		if _, dup := seenLinks[key]; dup {
			continue
		}
		seenLinks[key] = struct{}{}
		links = append(links, edge)
	}

	return aggregates.NewGraphState(nodes, links)
}

// TransformGraph is a convenience wrapper for a raw subgraph response
func (t *GraphTransform) TransformGraph(g *raw.Graph) *aggregates.GraphState {
	if g == nil {
		return aggregates.EmptyGraph()
	}
	return t.Transform(g.Nodes, g.AllEdges())
}

// TransformNode maps a single raw node record
func (t *GraphTransform) TransformNode(rn raw.Node) (entities.Node, bool) {
	id := rn.Key()
	if id == "" {
		return entities.Node{}, false
	}

	label := rn.Label
	if label == "" {
		label = rn.Name
	}
	if label == "" {
		label = id
	}

	group := rn.Ontology
	if group == "" {
		group = rn.Group
	}

	node := entities.Node{
		ID:    id,
		Label: label,
		Group: group,
	}
	if rn.Degree != nil {
		node = node.WithDegree(*rn.Degree)
	}
	if rn.Centrality != nil {
		node = node.WithCentrality(*rn.Centrality)
	}
	return node, true
}

// TransformEdge maps a single raw edge record, resolving embedded endpoints to bare ids
func (t *GraphTransform) TransformEdge(re raw.Edge) entities.Edge {
	confidence := t.defaultConfidence
	if re.Confidence != nil {
		confidence = *re.Confidence
	}

	edge := entities.Edge{
		SourceID:   re.SourceID(),
		TargetID:   re.TargetID(),
		Type:       entities.EdgeType(re.RelType()),
		Confidence: confidence,
		Category:   re.Category,
	}

	if re.Provenance != nil {
		edge.Provenance = &entities.Provenance{
			CreatedBy:  re.Provenance.CreatedBy,
			Source:     re.Provenance.Source,
			JobID:      re.Provenance.JobID,
			DocumentID: re.Provenance.DocumentID,
		}
		if re.Provenance.CreatedAt != nil {
			createdAt := *re.Provenance.CreatedAt
			edge.Provenance.CreatedAt = &createdAt
		}
	}

	return edge
}
