// Package explorers provides the built-in explorer implementations
package explorers

import (
	"context"
	"fmt"

	"kgexplorer/application/explorers"
)

const (
	Force2DType explorers.ExplorerType = "force-2d"
	Force3DType explorers.ExplorerType = "force-3d"
)

// ForceGraph describes the scene for a force-directed renderer.
// Layout itself happens client-side; this is the data and display options it consumes.
type ForceGraph struct {
	Dimensions int         `json:"dimensions"`
	Nodes      []ForceNode `json:"nodes"`
	Links      []ForceLink `json:"links"`
	ShowLabels bool        `json:"showLabels"`
	FocusID    string      `json:"focusId,omitempty"`
}

// ForceNode is a node in a force scene
type ForceNode struct {
	ID    string  `json:"id"`
	Label string  `json:"label,omitempty"`
	Group string  `json:"group"`
	Size  float64 `json:"size"`
}

// ForceLink is a link in a force scene
type ForceLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Width  float64 `json:"width"`
}

// ForceGraphExplorer renders graph-shaped data for 2D or 3D force layouts
type ForceGraphExplorer struct {
	config     explorers.ExplorerConfig
	dimensions int
}

// NewForce2DExplorer creates the 2D force explorer
func NewForce2DExplorer() *ForceGraphExplorer {
	return &ForceGraphExplorer{
		dimensions: 2,
		config: explorers.ExplorerConfig{
			ID:                "force-graph-2d",
			Type:              Force2DType,
			Name:              "Force Graph 2D",
			Description:       "Flat force-directed layout of concepts and relationships",
			Icon:              "share-2",
			RequiredDataShape: explorers.DataShapeGraph,
		},
	}
}

// NewForce3DExplorer creates the 3D force explorer
func NewForce3DExplorer() *ForceGraphExplorer {
	return &ForceGraphExplorer{
		dimensions: 3,
		config: explorers.ExplorerConfig{
			ID:                "force-graph-3d",
			Type:              Force3DType,
			Name:              "Force Graph 3D",
			Description:       "Spatial force-directed layout of concepts and relationships",
			Icon:              "box",
			RequiredDataShape: explorers.DataShapeGraph,
		},
	}
}

func (e *ForceGraphExplorer) Config() explorers.ExplorerConfig {
	return e.config
}

func (e *ForceGraphExplorer) DefaultSettings() explorers.Settings {
	return explorers.Settings{
		"showLabels":      true,
		"nodeSize":        4.0,
		"sizeByDegree":    true,
		"linkWidth":       1.0,
		"widthConfidence": true,
	}
}

func (e *ForceGraphExplorer) SettingsPanel() []explorers.SettingField {
	minSize, maxSize := 1.0, 20.0
	minWidth, maxWidth := 0.5, 5.0
	return []explorers.SettingField{
		{Key: "showLabels", Label: "Show labels", Kind: "bool", Default: true},
		{Key: "nodeSize", Label: "Node size", Kind: "number", Default: 4.0, Min: &minSize, Max: &maxSize},
		{Key: "sizeByDegree", Label: "Scale nodes by degree", Kind: "bool", Default: true},
		{Key: "linkWidth", Label: "Link width", Kind: "number", Default: 1.0, Min: &minWidth, Max: &maxWidth},
		{Key: "widthConfidence", Label: "Scale links by confidence", Kind: "bool", Default: true},
	}
}

// Render builds the force scene from a copy of the graph
func (e *ForceGraphExplorer) Render(ctx context.Context, props explorers.RenderProps) (explorers.View, error) {
	if err := ctx.Err(); err != nil {
		return explorers.View{}, err
	}

	settings := e.DefaultSettings().Merge(props.Settings)
	nodeSize, err := floatSetting(settings, "nodeSize")
	if err != nil {
		return explorers.View{}, err
	}
	linkWidth, err := floatSetting(settings, "linkWidth")
	if err != nil {
		return explorers.View{}, err
	}
	showLabels, _ := settings["showLabels"].(bool)
	sizeByDegree, _ := settings["sizeByDegree"].(bool)
	widthConfidence, _ := settings["widthConfidence"].(bool)

	scene := ForceGraph{
		Dimensions: e.dimensions,
		Nodes:      []ForceNode{},
		Links:      []ForceLink{},
		ShowLabels: showLabels,
	}
	if focus, ok := settings["focusId"].(string); ok {
		scene.FocusID = focus
	}

	if props.Data != nil {
		for _, n := range props.Data.Nodes {
			size := nodeSize
			if sizeByDegree && n.Degree != nil {
				size = nodeSize * (1 + float64(*n.Degree)/10)
			}
			node := ForceNode{ID: n.ID, Group: n.Group, Size: size}
			if showLabels {
				node.Label = n.Label
			}
			scene.Nodes = append(scene.Nodes, node)
		}
		for _, l := range props.Data.Links {
			width := linkWidth
			if widthConfidence && l.Confidence > 0 {
				width = linkWidth * l.Confidence
			}
			scene.Links = append(scene.Links, ForceLink{
				Source: l.SourceID,
				Target: l.TargetID,
				Type:   string(l.Type),
				Width:  width,
			})
		}
	}

	return explorers.View{Explorer: e.config.Type, Kind: "force-graph", Payload: scene}, nil
}

// floatSetting reads a numeric setting that may have been decoded from JSON
func floatSetting(settings explorers.Settings, key string) (float64, error) {
	switch v := settings[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("setting %s must be a number, got %T", key, v)
	}
}
