package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixturePath = filepath.Join("..", "..", "infrastructure", "datasource", "memory", "testdata", "graph.yaml")

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--fixture", fixturePath, "--no-color"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestConceptCmd_PrintsGraph(t *testing.T) {
	// Act
	out, err := runCLI(t, "concept", "heat")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "Nodes")
	assert.Contains(t, out, "heat")
	assert.Contains(t, out, "INCREASES")
}

func TestConceptCmd_UnknownConcept(t *testing.T) {
	// Act
	_, err := runCLI(t, "concept", "phlogiston")

	// Assert
	assert.Error(t, err)
}

func TestPathCmd_JSON(t *testing.T) {
	// Act
	out, err := runCLI(t, "--json", "path", "energy", "entropy")

	// Assert
	require.NoError(t, err)
	var body struct {
		Session struct {
			Status string `json:"status"`
		} `json:"session"`
		Graph struct {
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"graph"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "ready", body.Session.Status)

	ids := make([]string, 0, len(body.Graph.Nodes))
	for _, n := range body.Graph.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Contains(t, ids, "energy")
	assert.Contains(t, ids, "entropy")
}

func TestVocabularyCmd(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "active types",
			args:     []string{"vocabulary"},
			contains: []string{"INCREASES", "TRANSFORMS_INTO"},
			excludes: []string{"DEPRECATED_LINK"},
		},
		{
			name:     "with inactive",
			args:     []string{"vocabulary", "--include-inactive"},
			contains: []string{"DEPRECATED_LINK"},
		},
		{
			name:     "categories",
			args:     []string{"vocabulary", "--categories"},
			contains: []string{"CATEGORY", "causal"},
		},
		{
			name:     "refresh",
			args:     []string{"vocabulary", "--refresh"},
			contains: []string{"refreshed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			out, err := runCLI(t, tt.args...)

			// Assert
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestExplorersCmd(t *testing.T) {
	// Act
	out, err := runCLI(t, "explorers")
	_, shapeErr := runCLI(t, "explorers", "--shape", "spiral")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "force-2d")
	assert.Contains(t, out, "adjacency-matrix")
	assert.Error(t, shapeErr)
}
