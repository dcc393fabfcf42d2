// Package commands holds the state-changing operations on explorer sessions
package commands

import (
	"kgexplorer/application/explorers"
	"kgexplorer/domain/core/valueobjects"
	"kgexplorer/pkg/utils"
)

// NavigationAction names a history operation
type NavigationAction string

const (
	NavigateTo      NavigationAction = "to"
	NavigateBack    NavigationAction = "back"
	NavigateForward NavigationAction = "forward"
	NavigateFocus   NavigationAction = "focus"
)

// CreateSessionCommand starts a new session
type CreateSessionCommand struct{}

func (c CreateSessionCommand) Validate() error { return nil }

// DeleteSessionCommand ends a session
type DeleteSessionCommand struct {
	SessionID string `json:"sessionId" validate:"required"`
}

func (c DeleteSessionCommand) Validate() error { return utils.ValidateStruct(c) }

// SetSearchCommand replaces the active query of a session
type SetSearchCommand struct {
	SessionID string                    `json:"sessionId" validate:"required"`
	Params    valueobjects.SearchParams `json:"params"`
}

func (c SetSearchCommand) Validate() error { return utils.ValidateStruct(c) }

// ClearSearchCommand sets the idle query
type ClearSearchCommand struct {
	SessionID string `json:"sessionId" validate:"required"`
}

func (c ClearSearchCommand) Validate() error { return utils.ValidateStruct(c) }

// NavigateCommand moves through the navigation history
type NavigateCommand struct {
	SessionID string           `json:"sessionId" validate:"required"`
	Action    NavigationAction `json:"action" validate:"required,oneof=to back forward focus"`
	NodeID    string           `json:"nodeId" validate:"required_if=Action to,required_if=Action focus"`
}

func (c NavigateCommand) Validate() error { return utils.ValidateStruct(c) }

// FollowConceptCommand navigates to a node and adds its neighborhood to the graph
type FollowConceptCommand struct {
	SessionID string `json:"sessionId" validate:"required"`
	NodeID    string `json:"nodeId" validate:"required"`
	Depth     int    `json:"depth" validate:"gte=0"`
}

func (c FollowConceptCommand) Validate() error { return utils.ValidateStruct(c) }

// SelectExplorerCommand switches the active explorer
type SelectExplorerCommand struct {
	SessionID    string                 `json:"sessionId" validate:"required"`
	ExplorerType explorers.ExplorerType `json:"type" validate:"required"`
}

func (c SelectExplorerCommand) Validate() error { return utils.ValidateStruct(c) }

// UpdateSettingsCommand changes the active explorer's settings
type UpdateSettingsCommand struct {
	SessionID string             `json:"sessionId" validate:"required"`
	Settings  explorers.Settings `json:"settings" validate:"required"`
}

func (c UpdateSettingsCommand) Validate() error { return utils.ValidateStruct(c) }

// RefreshVocabularyCommand recomputes relationship categories upstream
type RefreshVocabularyCommand struct {
	OnlyComputed bool `json:"onlyComputed"`
}

func (c RefreshVocabularyCommand) Validate() error { return nil }

// SearchAccepted is returned when a query has been started or cleared
type SearchAccepted struct {
	SessionID  string `json:"sessionId"`
	Generation int    `json:"generation"`
}

// VocabularyRefreshed reports the outcome of a category refresh
type VocabularyRefreshed struct {
	TypeCount int `json:"typeCount"`
}
