package events

import (
	"time"

	"kgexplorer/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields.
// AggregateID is the explorer session; Version is the fetch generation the event belongs to.
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Event type names
const (
	TypeSearchParamsChanged = "search.params_changed"
	TypeGraphPublished      = "graph.published"
	TypeGraphFetchFailed    = "graph.fetch_failed"
	TypeStaleResultDropped  = "graph.stale_result_dropped"
	TypeNavigationChanged   = "navigation.changed"
	TypeExplorerChanged     = "explorer.changed"
	TypeVocabularyRefreshed = "vocabulary.refreshed"
)

func newBase(sessionID, eventType string, generation int, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: sessionID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     generation,
	}
}

// Search Events

// SearchParamsChanged is raised when a new query is issued or the query is cleared
type SearchParamsChanged struct {
	BaseEvent
	Params valueobjects.SearchParams `json:"params"`
}

// NewSearchParamsChanged creates a SearchParamsChanged event
func NewSearchParamsChanged(sessionID string, generation int, params valueobjects.SearchParams, timestamp time.Time) SearchParamsChanged {
	return SearchParamsChanged{
		BaseEvent: newBase(sessionID, TypeSearchParamsChanged, generation, timestamp),
		Params:    params,
	}
}

// Graph Events

// GraphPublished is raised when a fetch result has been merged into the canonical graph
type GraphPublished struct {
	BaseEvent
	Mode       valueobjects.SearchMode `json:"mode"`
	LoadMode   valueobjects.LoadMode   `json:"load_mode"`
	NodeCount  int                     `json:"node_count"`
	EdgeCount  int                     `json:"edge_count"`
	AddedNodes int                     `json:"added_nodes"`
	AddedLinks int                     `json:"added_links"`
	Duration   time.Duration           `json:"duration"`
}

// NewGraphPublished creates a GraphPublished event
func NewGraphPublished(sessionID string, generation int, params valueobjects.SearchParams, nodeCount, edgeCount, addedNodes, addedLinks int, duration time.Duration, timestamp time.Time) GraphPublished {
	return GraphPublished{
		BaseEvent:  newBase(sessionID, TypeGraphPublished, generation, timestamp),
		Mode:       params.Mode,
		LoadMode:   params.EffectiveLoadMode(),
		NodeCount:  nodeCount,
		EdgeCount:  edgeCount,
		AddedNodes: addedNodes,
		AddedLinks: addedLinks,
		Duration:   duration,
	}
}

// GraphFetchFailed is raised when the fetch for the current query fails
type GraphFetchFailed struct {
	BaseEvent
	Mode    valueobjects.SearchMode `json:"mode"`
	Message string                  `json:"message"`
}

// NewGraphFetchFailed creates a GraphFetchFailed event
func NewGraphFetchFailed(sessionID string, generation int, mode valueobjects.SearchMode, message string, timestamp time.Time) GraphFetchFailed {
	return GraphFetchFailed{
		BaseEvent: newBase(sessionID, TypeGraphFetchFailed, generation, timestamp),
		Mode:      mode,
		Message:   message,
	}
}

// StaleResultDropped is raised when a fetch finishes after a newer query superseded it
type StaleResultDropped struct {
	BaseEvent
	CurrentGeneration int `json:"current_generation"`
}

// NewStaleResultDropped creates a StaleResultDropped event
func NewStaleResultDropped(sessionID string, generation, current int, timestamp time.Time) StaleResultDropped {
	return StaleResultDropped{
		BaseEvent:         newBase(sessionID, TypeStaleResultDropped, generation, timestamp),
		CurrentGeneration: current,
	}
}

// Navigation Events

// NavigationChanged is raised when history or focus changes
type NavigationChanged struct {
	BaseEvent
	FocusedNodeID valueobjects.NodeID `json:"focused_node_id"`
	OriginNodeID  valueobjects.NodeID `json:"origin_node_id"`
	HistoryIndex  int                 `json:"history_index"`
	HistoryLength int                 `json:"history_length"`
}

// NewNavigationChanged creates a NavigationChanged event
func NewNavigationChanged(sessionID string, generation int, focused, origin valueobjects.NodeID, index, length int, timestamp time.Time) NavigationChanged {
	return NavigationChanged{
		BaseEvent:     newBase(sessionID, TypeNavigationChanged, generation, timestamp),
		FocusedNodeID: focused,
		OriginNodeID:  origin,
		HistoryIndex:  index,
		HistoryLength: length,
	}
}

// Explorer Events

// ExplorerChanged is raised when the selected explorer or its settings change
type ExplorerChanged struct {
	BaseEvent
	ExplorerType string                 `json:"explorer_type"`
	Settings     map[string]interface{} `json:"settings,omitempty"`
}

// NewExplorerChanged creates an ExplorerChanged event
func NewExplorerChanged(sessionID string, generation int, explorerType string, settings map[string]interface{}, timestamp time.Time) ExplorerChanged {
	return ExplorerChanged{
		BaseEvent:    newBase(sessionID, TypeExplorerChanged, generation, timestamp),
		ExplorerType: explorerType,
		Settings:     settings,
	}
}

// Vocabulary Events

// VocabularyRefreshed is raised after relationship categories are recomputed upstream
type VocabularyRefreshed struct {
	BaseEvent
	TypeCount int `json:"type_count"`
}

// NewVocabularyRefreshed creates a VocabularyRefreshed event. It is not tied to a session.
func NewVocabularyRefreshed(typeCount int, timestamp time.Time) VocabularyRefreshed {
	return VocabularyRefreshed{
		BaseEvent: newBase("vocabulary", TypeVocabularyRefreshed, 0, timestamp),
		TypeCount: typeCount,
	}
}
