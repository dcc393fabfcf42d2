package entities

import (
	"fmt"
	"time"
)

// EdgeType is the relationship label of an edge, as reported by the graph API
type EdgeType string

// Provenance records where an edge came from
type Provenance struct {
	CreatedBy  string     `json:"created_by,omitempty"`
	Source     string     `json:"source,omitempty"`
	JobID      string     `json:"job_id,omitempty"`
	DocumentID string     `json:"document_id,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// Edge is a directed, typed link between two concepts
type Edge struct {
	SourceID   string      `json:"sourceId"`
	TargetID   string      `json:"targetId"`
	Type       EdgeType    `json:"type"`
	Confidence float64     `json:"confidence"`
	Category   string      `json:"category,omitempty"`
	Provenance *Provenance `json:"provenance,omitempty"`
}

// EdgeKey is the identity of an edge for deduplication
type EdgeKey string

// KeyFor builds the identity key for a (source, target, type) triple
func KeyFor(sourceID, targetID string, edgeType EdgeType) EdgeKey {
	return EdgeKey(fmt.Sprintf("%s->%s-%s", sourceID, targetID, edgeType))
}

// Key returns the identity key "{sourceId}->{targetId}-{type}"
func (e Edge) Key() EdgeKey {
	return KeyFor(e.SourceID, e.TargetID, e.Type)
}

// Connects reports whether the edge touches the given node
func (e Edge) Connects(nodeID string) bool {
	return e.SourceID == nodeID || e.TargetID == nodeID
}

// Clone returns a deep copy of the edge
func (e Edge) Clone() Edge {
	out := e
	if e.Provenance != nil {
		p := *e.Provenance
		if e.Provenance.CreatedAt != nil {
			t := *e.Provenance.CreatedAt
			p.CreatedAt = &t
		}
		out.Provenance = &p
	}
	return out
}
