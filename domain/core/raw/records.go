// Package raw holds the record shapes returned by the graph API before they are
// normalized into the renderer-neutral model.
package raw

import (
	"encoding/json"
	"errors"
	"time"
)

// Ref is an edge endpoint. The API sends either a bare id string or an
// embedded node object; both decode to the bare id.
type Ref struct {
	ID string
}

// NewRef creates a reference to a node id
func NewRef(id string) Ref {
	return Ref{ID: id}
}

// MarshalJSON encodes the reference as a bare id
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts "id", {"concept_id": "id"} or {"id": "id"}
func (r *Ref) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		r.ID = ""
		return nil
	}

	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		r.ID = id
		return nil
	}

	var embedded struct {
		ConceptID string `json:"concept_id"`
		ID        string `json:"id"`
	}
	if err := json.Unmarshal(data, &embedded); err != nil {
		return errors.New("edge endpoint must be an id string or a node object")
	}
	r.ID = embedded.ConceptID
	if r.ID == "" {
		r.ID = embedded.ID
	}
	return nil
}

// Node is a node record as the API returns it
type Node struct {
	ConceptID  string   `json:"concept_id,omitempty" yaml:"concept_id,omitempty"`
	ID         string   `json:"id,omitempty" yaml:"id,omitempty"`
	Label      string   `json:"label,omitempty" yaml:"label,omitempty"`
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Ontology   string   `json:"ontology,omitempty" yaml:"ontology,omitempty"`
	Group      string   `json:"group,omitempty" yaml:"group,omitempty"`
	Degree     *int     `json:"degree,omitempty" yaml:"degree,omitempty"`
	Centrality *float64 `json:"centrality,omitempty" yaml:"centrality,omitempty"`
}

// Key returns the node identifier, preferring concept_id
func (n Node) Key() string {
	if n.ConceptID != "" {
		return n.ConceptID
	}
	return n.ID
}

// Provenance is the raw provenance block attached to an edge
type Provenance struct {
	CreatedBy  string     `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	Source     string     `json:"source,omitempty" yaml:"source,omitempty"`
	JobID      string     `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	DocumentID string     `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Edge is an edge record as the API returns it
type Edge struct {
	Source           Ref         `json:"source" yaml:"-"`
	Target           Ref         `json:"target" yaml:"-"`
	FromID           string      `json:"from_id,omitempty" yaml:"from,omitempty"`
	ToID             string      `json:"to_id,omitempty" yaml:"to,omitempty"`
	Type             string      `json:"type,omitempty" yaml:"type,omitempty"`
	RelationshipType string      `json:"relationship_type,omitempty" yaml:"relationship_type,omitempty"`
	Confidence       *float64    `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Category         string      `json:"category,omitempty" yaml:"category,omitempty"`
	Provenance       *Provenance `json:"provenance,omitempty" yaml:"provenance,omitempty"`
}

// SourceID returns the source endpoint id
func (e Edge) SourceID() string {
	if e.Source.ID != "" {
		return e.Source.ID
	}
	return e.FromID
}

// TargetID returns the target endpoint id
func (e Edge) TargetID() string {
	if e.Target.ID != "" {
		return e.Target.ID
	}
	return e.ToID
}

// RelType returns the relationship label
func (e Edge) RelType() string {
	if e.Type != "" {
		return e.Type
	}
	return e.RelationshipType
}

// Graph is a subgraph response
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges,omitempty"`
	Links []Edge `json:"links,omitempty"`

	// Truncated is set when the response was capped at the requested limit
	Truncated bool `json:"truncated,omitempty"`
}

// AllEdges returns edges from both the "edges" and "links" fields
func (g *Graph) AllEdges() []Edge {
	if g == nil {
		return nil
	}
	if len(g.Links) == 0 {
		return g.Edges
	}
	if len(g.Edges) == 0 {
		return g.Links
	}
	out := make([]Edge, 0, len(g.Edges)+len(g.Links))
	out = append(out, g.Edges...)
	return append(out, g.Links...)
}

// Path is one discovered path between two concepts.
// Relationships[i] labels the hop from Nodes[i] to Nodes[i+1]. Reversed[i] is set when
// that hop walked a stored edge from Nodes[i+1] to Nodes[i].
type Path struct {
	Nodes         []Node   `json:"nodes"`
	Relationships []string `json:"relationships"`
	Reversed      []bool   `json:"reversed,omitempty"`
	Score         float64  `json:"score"`
	Hops          int      `json:"hops"`
}

// HopReversed reports whether hop i runs against its edge's direction
func (p Path) HopReversed(i int) bool {
	return i < len(p.Reversed) && p.Reversed[i]
}

// ConnectionResult is a path-discovery response
type ConnectionResult struct {
	Paths []Path `json:"paths"`
	Count int    `json:"count"`
}

// VocabularyType describes one relationship type in the vocabulary
type VocabularyType struct {
	RelationshipType   string  `json:"relationship_type"`
	Category           string  `json:"category"`
	CategoryConfidence float64 `json:"category_confidence"`
	CategoryAmbiguous  bool    `json:"category_ambiguous"`
	IsActive           bool    `json:"is_active"`
	EdgeCount          int     `json:"edge_count"`
}

// VocabularyTypes is a vocabulary listing response
type VocabularyTypes struct {
	Types []VocabularyType `json:"types"`
}
