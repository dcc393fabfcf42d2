// Package explorers defines the contract between the session core and pluggable
// graph renderers, and the registry that selects one by type.
package explorers

import (
	"context"

	"kgexplorer/domain/core/aggregates"
)

// ExplorerType keys an explorer in the registry
type ExplorerType string

// DataShape is the topology an explorer knows how to draw
type DataShape string

const (
	DataShapeGraph    DataShape = "graph"
	DataShapeTree     DataShape = "tree"
	DataShapeFlow     DataShape = "flow"
	DataShapeMatrix   DataShape = "matrix"
	DataShapeTemporal DataShape = "temporal"
)

// IsValid reports whether the shape is one of the known topologies
func (s DataShape) IsValid() bool {
	switch s {
	case DataShapeGraph, DataShapeTree, DataShapeFlow, DataShapeMatrix, DataShapeTemporal:
		return true
	}
	return false
}

// ExplorerConfig describes an explorer to pickers and settings panels
type ExplorerConfig struct {
	ID                string       `json:"id"`
	Type              ExplorerType `json:"type"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	Icon              string       `json:"icon"`
	RequiredDataShape DataShape    `json:"requiredDataShape"`
}

// Settings are explorer-specific display options
type Settings map[string]interface{}

// Clone returns a shallow copy
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge returns a copy of s overlaid with other
func (s Settings) Merge(other Settings) Settings {
	out := s.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// SettingField describes one control in an explorer's settings panel
type SettingField struct {
	Key     string        `json:"key"`
	Label   string        `json:"label"`
	Kind    string        `json:"kind"` // bool, number, select
	Default interface{}   `json:"default"`
	Min     *float64      `json:"min,omitempty"`
	Max     *float64      `json:"max,omitempty"`
	Options []interface{} `json:"options,omitempty"`
}

// RenderProps is what an explorer receives. Data is a private copy; explorers report
// interactions through the callbacks and never write canonical state.
type RenderProps struct {
	Data             *aggregates.GraphState
	Settings         Settings
	OnSettingsChange func(Settings)
	OnNodeClick      func(nodeID string)
}

// View is an explorer's rendered output
type View struct {
	Explorer ExplorerType `json:"explorer"`
	Kind     string       `json:"kind"`
	Payload  interface{}  `json:"payload"`
}

// PlaceholderKind marks the neutral view shown when no explorer can render
const PlaceholderKind = "placeholder"

// PlaceholderView is the neutral "no explorer" output
func PlaceholderView(requested ExplorerType) View {
	return View{
		Explorer: requested,
		Kind:     PlaceholderKind,
		Payload: map[string]string{
			"message": "No explorer available for " + string(requested),
		},
	}
}

// IsPlaceholder reports whether the view is the neutral placeholder
func (v View) IsPlaceholder() bool {
	return v.Kind == PlaceholderKind
}

// Explorer is the capability set every renderer implements.
// The orchestrator only talks to explorers through this interface.
type Explorer interface {
	Config() ExplorerConfig
	DefaultSettings() Settings
	SettingsPanel() []SettingField
	Render(ctx context.Context, props RenderProps) (View, error)
}
