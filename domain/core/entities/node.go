package entities

import (
	"kgexplorer/domain/core/valueobjects"
)

// Node is a concept vertex in the renderer-neutral graph model.
// Nodes are values: once merged into a graph they are never mutated in place,
// a changed node is replaced wholesale.
type Node struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Group      string   `json:"group,omitempty"`
	Degree     *int     `json:"degree,omitempty"`
	Centrality *float64 `json:"centrality,omitempty"`
}

// NewNode creates a node with the required identity fields
func NewNode(id valueobjects.NodeID, label, group string) Node {
	if label == "" {
		label = id.String()
	}
	return Node{
		ID:    id.String(),
		Label: label,
		Group: group,
	}
}

// NodeID returns the typed identifier of the node
func (n Node) NodeID() valueobjects.NodeID {
	id, _ := valueobjects.NewNodeID(n.ID)
	return id
}

// WithDegree returns a copy of the node carrying a degree value
func (n Node) WithDegree(degree int) Node {
	n.Degree = &degree
	return n
}

// WithCentrality returns a copy of the node carrying a centrality score
func (n Node) WithCentrality(centrality float64) Node {
	n.Centrality = &centrality
	return n
}

// Clone returns a deep copy so callers cannot alias optional fields
func (n Node) Clone() Node {
	out := n
	if n.Degree != nil {
		d := *n.Degree
		out.Degree = &d
	}
	if n.Centrality != nil {
		c := *n.Centrality
		out.Centrality = &c
	}
	return out
}
