package explorers

import (
	"context"
	"sort"

	"kgexplorer/application/explorers"
)

const AdjacencyMatrixType explorers.ExplorerType = "adjacency-matrix"

// AdjacencyMatrix is the cell grid for a matrix renderer.
// Cells[i][j] lists the relationship types from Labels[i] to Labels[j].
type AdjacencyMatrix struct {
	IDs    []string     `json:"ids"`
	Labels []string     `json:"labels"`
	Cells  [][][]string `json:"cells"`
}

// AdjacencyMatrixExplorer renders the graph as an adjacency matrix
type AdjacencyMatrixExplorer struct {
	config explorers.ExplorerConfig
}

// NewAdjacencyMatrixExplorer creates the matrix explorer
func NewAdjacencyMatrixExplorer() *AdjacencyMatrixExplorer {
	return &AdjacencyMatrixExplorer{
		config: explorers.ExplorerConfig{
			ID:                "adjacency-matrix",
			Type:              AdjacencyMatrixType,
			Name:              "Adjacency Matrix",
			Description:       "Concept-by-concept grid of relationship types",
			Icon:              "grid",
			RequiredDataShape: explorers.DataShapeMatrix,
		},
	}
}

func (e *AdjacencyMatrixExplorer) Config() explorers.ExplorerConfig {
	return e.config
}

func (e *AdjacencyMatrixExplorer) DefaultSettings() explorers.Settings {
	return explorers.Settings{"sortBy": "insertion"}
}

func (e *AdjacencyMatrixExplorer) SettingsPanel() []explorers.SettingField {
	return []explorers.SettingField{
		{Key: "sortBy", Label: "Order", Kind: "select", Default: "insertion", Options: []interface{}{"insertion", "label", "group"}},
	}
}

// Render builds the matrix. Edges whose endpoints are not in the node set are left out.
func (e *AdjacencyMatrixExplorer) Render(ctx context.Context, props explorers.RenderProps) (explorers.View, error) {
	if err := ctx.Err(); err != nil {
		return explorers.View{}, err
	}

	matrix := AdjacencyMatrix{IDs: []string{}, Labels: []string{}, Cells: [][][]string{}}
	if props.Data == nil {
		return explorers.View{Explorer: e.config.Type, Kind: "matrix", Payload: matrix}, nil
	}

	nodes := append(props.Data.Nodes[:0:0], props.Data.Nodes...)
	sortBy, _ := e.DefaultSettings().Merge(props.Settings)["sortBy"].(string)
	switch sortBy {
	case "label":
		sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Label < nodes[j].Label })
	case "group":
		sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Group < nodes[j].Group })
	}

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
		matrix.IDs = append(matrix.IDs, n.ID)
		matrix.Labels = append(matrix.Labels, n.Label)
	}

	matrix.Cells = make([][][]string, len(nodes))
	for i := range matrix.Cells {
		matrix.Cells[i] = make([][]string, len(nodes))
	}
	for _, l := range props.Data.Links {
		from, okFrom := index[l.SourceID]
		to, okTo := index[l.TargetID]
		if !okFrom || !okTo {
			continue
		}
		matrix.Cells[from][to] = append(matrix.Cells[from][to], string(l.Type))
	}

	return explorers.View{Explorer: e.config.Type, Kind: "matrix", Payload: matrix}, nil
}
