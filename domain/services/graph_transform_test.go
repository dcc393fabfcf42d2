package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgexplorer/domain/core/entities"
	"kgexplorer/domain/core/raw"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestGraphTransform_TransformNode(t *testing.T) {
	transform := NewGraphTransform(1.0)

	tests := []struct {
		name   string
		input  raw.Node
		want   entities.Node
		wantOK bool
	}{
		{
			name:   "concept_id, label and ontology",
			input:  raw.Node{ConceptID: "c1", Label: "Concept", Ontology: "physics"},
			want:   entities.Node{ID: "c1", Label: "Concept", Group: "physics"},
			wantOK: true,
		},
		{
			name:   "id, name and group",
			input:  raw.Node{ID: "n1", Name: "Named", Group: "g"},
			want:   entities.Node{ID: "n1", Label: "Named", Group: "g"},
			wantOK: true,
		},
		{
			name:   "concept_id preferred over id",
			input:  raw.Node{ConceptID: "c1", ID: "n1"},
			want:   entities.Node{ID: "c1", Label: "c1"},
			wantOK: true,
		},
		{
			name:   "ontology preferred over group",
			input:  raw.Node{ID: "n1", Ontology: "o", Group: "g"},
			want:   entities.Node{ID: "n1", Label: "n1", Group: "o"},
			wantOK: true,
		},
		{
			name:   "metrics carried",
			input:  raw.Node{ID: "n1", Degree: intPtr(4), Centrality: floatPtr(0.5)},
			want:   entities.Node{ID: "n1", Label: "n1", Degree: intPtr(4), Centrality: floatPtr(0.5)},
			wantOK: true,
		},
		{
			name:   "no identifier",
			input:  raw.Node{Label: "orphan"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := transform.TransformNode(tt.input)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGraphTransform_TransformEdge(t *testing.T) {
	// Arrange
	transform := NewGraphTransform(1.0)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	input := raw.Edge{
		Source:           raw.NewRef("a"),
		Target:           raw.NewRef("b"),
		RelationshipType: "causes",
		Category:         "causal",
		Provenance:       &raw.Provenance{CreatedBy: "ingest", JobID: "job-1", CreatedAt: &created},
	}

	// Act
	got := transform.TransformEdge(input)

	// Assert
	assert.Equal(t, "a", got.SourceID)
	assert.Equal(t, "b", got.TargetID)
	assert.Equal(t, entities.EdgeType("causes"), got.Type)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, "causal", got.Category)
	require.NotNil(t, got.Provenance)
	assert.Equal(t, "job-1", got.Provenance.JobID)
	assert.Equal(t, created, *got.Provenance.CreatedAt)
}

func TestGraphTransform_TransformEdge_FromToFields(t *testing.T) {
	transform := NewGraphTransform(0.8)

	got := transform.TransformEdge(raw.Edge{FromID: "a", ToID: "b", Type: "knows", Confidence: floatPtr(0.3)})

	assert.Equal(t, entities.KeyFor("a", "b", "knows"), got.Key())
	assert.Equal(t, 0.3, got.Confidence)
}

func TestGraphTransform_Transform_EmbeddedEndpoints(t *testing.T) {
	// Arrange
	payload := `{
		"nodes": [{"concept_id": "c1", "label": "One"}, {"concept_id": "c2", "label": "Two"}],
		"edges": [
			{"source": {"concept_id": "c1", "label": "One"}, "target": "c2", "type": "derives"},
			{"source": {"id": "c2"}, "target": {"concept_id": "c9"}, "type": "mentions"}
		]
	}`
	var rawGraph raw.Graph
	require.NoError(t, json.Unmarshal([]byte(payload), &rawGraph))
	transform := NewGraphTransform(1.0)

	// Act
	g := transform.TransformGraph(&rawGraph)

	// Assert
	require.Len(t, g.Links, 2)
	assert.Equal(t, entities.EdgeKey("c1->c2-derives"), g.Links[0].Key())
	assert.Equal(t, entities.EdgeKey("c2->c9-mentions"), g.Links[1].Key())
	assert.Len(t, g.DanglingEdges(), 1, "edges to unknown nodes are preserved")
}

func TestGraphTransform_Transform_IsReferentiallyTransparent(t *testing.T) {
	transform := NewGraphTransform(1.0)
	nodes := []raw.Node{{ID: "a"}, {ID: "b", Degree: intPtr(2)}, {ID: "a", Label: "dup"}}
	edges := []raw.Edge{
		{FromID: "a", ToID: "b", Type: "t"},
		{FromID: "a", ToID: "b", Type: "t"},
		{FromID: "b", ToID: "c", Type: "t"},
	}

	first := transform.Transform(nodes, edges)
	second := transform.Transform(nodes, edges)

	assert.Equal(t, first, second)
	assert.Len(t, first.Nodes, 2)
	assert.Equal(t, "a", first.Nodes[0].Label, "first occurrence wins")
	assert.Len(t, first.Links, 2)
}

func TestGraphTransform_TransformGraph_Nil(t *testing.T) {
	transform := NewGraphTransform(1.0)

	g := transform.TransformGraph(nil)

	require.NotNil(t, g)
	assert.True(t, g.IsEmpty())
}
