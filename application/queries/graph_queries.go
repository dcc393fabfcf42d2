package queries

import (
	"errors"
	"fmt"

	"kgexplorer/domain/core/aggregates"
)

// ConceptQuery fetches the 1-hop neighborhood of a concept
type ConceptQuery struct {
	ConceptID string
	Depth     int
	Limit     int
}

// Validate validates the ConceptQuery
func (q ConceptQuery) Validate() error {
	if q.ConceptID == "" {
		return errors.New("concept ID is required")
	}
	if q.Depth < 1 {
		return errors.New("depth must be at least 1")
	}
	if q.Limit < 1 {
		return errors.New("limit must be positive")
	}
	return nil
}

// CacheKey identifies the fetch for result caching
func (q ConceptQuery) CacheKey() string {
	return fmt.Sprintf("%s:%d:%d", q.ConceptID, q.Depth, q.Limit)
}

// SubgraphQuery fetches a depth-bounded neighborhood around a center concept
type SubgraphQuery struct {
	CenterID string
	Depth    int
	Limit    int
}

// Validate validates the SubgraphQuery
func (q SubgraphQuery) Validate() error {
	if q.CenterID == "" {
		return errors.New("center concept ID is required")
	}
	if q.Depth < 1 {
		return errors.New("depth must be at least 1")
	}
	if q.Limit < 1 {
		return errors.New("limit must be positive")
	}
	return nil
}

// CacheKey identifies the fetch for result caching
func (q SubgraphQuery) CacheKey() string {
	return fmt.Sprintf("%s:%d:%d", q.CenterID, q.Depth, q.Limit)
}

// FindPathQuery finds paths between two concepts, optionally enriching the best one
// with the Depth-hop neighborhood of each of its nodes.
type FindPathQuery struct {
	FromID  string
	ToID    string
	MaxHops int
	Depth   int
	Limit   int
}

// Validate validates the FindPathQuery
func (q FindPathQuery) Validate() error {
	if q.FromID == "" || q.ToID == "" {
		return errors.New("from and to concept IDs are required")
	}
	if q.MaxHops < 1 {
		return errors.New("maxHops must be at least 1")
	}
	if q.Depth < 0 {
		return errors.New("depth cannot be negative")
	}
	if q.Depth > 0 && q.Limit < 1 {
		return errors.New("limit must be positive for enrichment")
	}
	return nil
}

// Enriched reports whether neighborhood enrichment is requested
func (q FindPathQuery) Enriched() bool {
	return q.Depth > 0
}

// CacheKey identifies the fetch for result caching
func (q FindPathQuery) CacheKey() string {
	return fmt.Sprintf("%s:%s:%d:%d:%d", q.FromID, q.ToID, q.MaxHops, q.Depth, q.Limit)
}

// GraphResult is the normalized outcome of a graph query, ready to merge
type GraphResult struct {
	Graph *aggregates.GraphState `json:"graph"`

	// Truncated is set when an upstream response was capped at the limit
	Truncated bool `json:"truncated,omitempty"`

	// PathCount is the number of paths found, for path queries
	PathCount int `json:"pathCount,omitempty"`
}
