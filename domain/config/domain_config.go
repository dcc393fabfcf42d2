package config

import "time"

// DomainConfig holds all configurable exploration rules and defaults
type DomainConfig struct {
	// Query defaults
	ConceptDepth             int
	DefaultNeighborhoodDepth int
	DefaultMaxHops           int
	MaxDepth                 int
	MaxHopsLimit             int

	// Response bounds
	SubgraphLimit int

	// Path enrichment
	PathEdgePlaceholder   string
	EnrichmentConcurrency int

	// Navigation
	MaxHistoryEntries int

	// Edge defaults
	DefaultEdgeConfidence float64

	// Time constraints
	FetchTimeout   time.Duration
	SessionTimeout time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Query defaults
		ConceptDepth:             1,
		DefaultNeighborhoodDepth: 2,
		DefaultMaxHops:           5,
		MaxDepth:                 5,
		MaxHopsLimit:             10,

		// Response bounds
		SubgraphLimit: 500,

		// Path enrichment
		PathEdgePlaceholder:   "related_to",
		EnrichmentConcurrency: 8,

		// Navigation (0 = unbounded)
		MaxHistoryEntries: 0,

		// Edge defaults
		DefaultEdgeConfidence: 1.0,

		// Time constraints
		FetchTimeout:   30 * time.Second,
		SessionTimeout: 24 * time.Hour,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Tighter response bounds for production
	config.SubgraphLimit = 300
	config.MaxDepth = 4
	config.MaxHistoryEntries = 200

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// More permissive for development
	config.SubgraphLimit = 2000
	config.FetchTimeout = 2 * time.Minute

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks that the configuration is internally consistent
func (c *DomainConfig) Validate() error {
	if c.ConceptDepth < 1 {
		return &ValidationError{Field: "ConceptDepth", Message: "must be at least 1"}
	}
	if c.DefaultNeighborhoodDepth < 1 || c.DefaultNeighborhoodDepth > c.MaxDepth {
		return &ValidationError{Field: "DefaultNeighborhoodDepth", Message: "must be between 1 and MaxDepth"}
	}
	if c.DefaultMaxHops < 1 || c.DefaultMaxHops > c.MaxHopsLimit {
		return &ValidationError{Field: "DefaultMaxHops", Message: "must be between 1 and MaxHopsLimit"}
	}
	if c.SubgraphLimit < 1 {
		return &ValidationError{Field: "SubgraphLimit", Message: "must be positive"}
	}
	if c.PathEdgePlaceholder == "" {
		return &ValidationError{Field: "PathEdgePlaceholder", Message: "cannot be empty"}
	}
	if c.EnrichmentConcurrency < 0 {
		return &ValidationError{Field: "EnrichmentConcurrency", Message: "cannot be negative"}
	}
	if c.MaxHistoryEntries < 0 {
		return &ValidationError{Field: "MaxHistoryEntries", Message: "cannot be negative"}
	}
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "domain config " + e.Field + ": " + e.Message
}
