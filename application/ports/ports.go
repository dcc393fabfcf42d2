package ports

import (
	"context"

	"kgexplorer/domain/core/raw"
	"kgexplorer/domain/events"
)

// GraphDataSource defines the interface to the upstream knowledge-graph API.
// Implementations return raw records; normalization happens in the domain transform.
type GraphDataSource interface {
	// GetSubgraph returns the neighborhood of centerID up to depth hops, capped at limit nodes.
	// An oversized neighborhood is returned truncated with Truncated set, not as an error.
	GetSubgraph(ctx context.Context, centerID string, depth, limit int) (*raw.Graph, error)

	// FindConnection returns paths between two concepts within maxHops
	FindConnection(ctx context.Context, fromID, toID string, maxHops int) (*raw.ConnectionResult, error)

	// GetVocabularyTypes lists relationship types
	GetVocabularyTypes(ctx context.Context, opts VocabularyOptions) (*raw.VocabularyTypes, error)

	// RefreshVocabularyCategories asks the API to recompute relationship categories
	RefreshVocabularyCategories(ctx context.Context, opts RefreshOptions) error
}

// VocabularyOptions filters a vocabulary listing
type VocabularyOptions struct {
	IncludeInactive bool   `json:"includeInactive"`
	Category        string `json:"category,omitempty"`
	Limit           int    `json:"limit,omitempty" validate:"gte=0"`
}

// RefreshOptions controls a category refresh
type RefreshOptions struct {
	OnlyComputed bool `json:"onlyComputed"`
}

// HealthChecker is implemented by data sources that can report upstream reachability
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish publishes a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch publishes multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
