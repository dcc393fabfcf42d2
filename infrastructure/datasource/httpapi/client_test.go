package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kgexplorer/application/ports"
	apperrors "kgexplorer/pkg/errors"
)

type recordedCall struct {
	operation string
	failed    bool
}

type fakeRecorder struct {
	mu     sync.Mutex
	calls  []recordedCall
	states []int
}

func (r *fakeRecorder) RecordUpstream(operation string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{operation: operation, failed: err != nil})
}

func (r *fakeRecorder) SetBreakerState(_ string, state int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func newTestClient(t *testing.T, handler http.Handler, opts Options, recorder Recorder) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts.BaseURL = server.URL + "/api/v1"
	client, err := NewClient(opts, recorder, nil, zap.NewNop())
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewClient_InvalidURL(t *testing.T) {
	// Act
	_, err := NewClient(Options{BaseURL: "not a url"}, nil, nil, zap.NewNop())

	// Assert
	assert.Error(t, err)
}

func TestClient_GetSubgraph(t *testing.T) {
	// Arrange
	var gotPath, gotQuery, gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"nodes": []map[string]interface{}{
				{"concept_id": "C1", "label": "Entropy"},
				{"concept_id": "C2", "label": "Heat"},
			},
			"links": []map[string]interface{}{
				{"source": map[string]string{"concept_id": "C1"}, "target": "C2", "type": "relates"},
			},
		})
	})
	recorder := &fakeRecorder{}
	client := newTestClient(t, handler, Options{Token: "secret"}, recorder)

	// Act
	graph, err := client.GetSubgraph(context.Background(), "C1", 2, 1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/query/subgraph", gotPath)
	assert.Equal(t, "center=C1&depth=2&limit=1", gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)
	require.Len(t, graph.Nodes, 2)
	require.Len(t, graph.AllEdges(), 1)
	assert.Equal(t, "C1", graph.AllEdges()[0].SourceID())
	assert.True(t, graph.Truncated, "more nodes than the limit marks the response truncated")
	assert.Equal(t, []recordedCall{{operation: "subgraph"}}, recorder.calls)
}

func TestClient_FindConnection(t *testing.T) {
	// Arrange
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query/connect", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("max_hops"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"paths": []map[string]interface{}{
				{"nodes": []map[string]string{{"concept_id": "A"}, {"concept_id": "B"}}, "relationships": []string{"causes"}, "hops": 1},
			},
		})
	})
	client := newTestClient(t, handler, Options{}, nil)

	// Act
	result, err := client.FindConnection(context.Background(), "A", "B", 3)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, []string{"causes"}, result.Paths[0].Relationships)
}

func TestClient_Vocabulary(t *testing.T) {
	// Arrange
	var refreshBody map[string]bool
	handler := http.NewServeMux()
	handler.HandleFunc("/api/v1/vocabulary/types", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("include_inactive"))
		assert.Equal(t, "causal", r.URL.Query().Get("category"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"types": []map[string]interface{}{{"relationship_type": "causes", "category": "causal", "edge_count": 4}},
		})
	})
	handler.HandleFunc("/api/v1/vocabulary/refresh-categories", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_ = json.NewDecoder(r.Body).Decode(&refreshBody)
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(t, handler, Options{}, nil)
	ctx := context.Background()

	// Act
	types, typesErr := client.GetVocabularyTypes(ctx, ports.VocabularyOptions{IncludeInactive: true, Category: "causal"})
	refreshErr := client.RefreshVocabularyCategories(ctx, ports.RefreshOptions{OnlyComputed: true})

	// Assert
	require.NoError(t, typesErr)
	require.NoError(t, refreshErr)
	assert.Equal(t, 4, types.Types[0].EdgeCount)
	assert.Equal(t, map[string]bool{"only_computed": true}, refreshBody)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      interface{}
		wantType  apperrors.ErrorType
		wantInMsg string
	}{
		{name: "not found", status: http.StatusNotFound, body: map[string]string{"detail": "concept X missing"}, wantType: apperrors.ErrorTypeNotFound, wantInMsg: "concept X missing"},
		{name: "bad request", status: http.StatusBadRequest, body: map[string]string{"error": "depth too large"}, wantType: apperrors.ErrorTypeValidation, wantInMsg: "depth too large"},
		{name: "rate limited", status: http.StatusTooManyRequests, body: map[string]string{"detail": "slow down"}, wantType: apperrors.ErrorTypeRateLimit, wantInMsg: "slow down"},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantType: apperrors.ErrorTypeExternal},
		{name: "unavailable", status: http.StatusServiceUnavailable, body: map[string]string{"detail": "index rebuilding"}, wantType: apperrors.ErrorTypeUnavailable, wantInMsg: "index rebuilding"},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, body: map[string]string{"detail": "query too slow"}, wantType: apperrors.ErrorTypeTimeout, wantInMsg: "query too slow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}), Options{}, nil)

			// Act
			_, err := client.GetSubgraph(context.Background(), "X", 1, 10)

			// Assert
			require.Error(t, err)
			appErr := apperrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantType, appErr.Type)
			assert.Contains(t, appErr.UserMessage(), tt.wantInMsg)
		})
	}
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	// Arrange
	var hits int
	var mu sync.Mutex
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	})
	recorder := &fakeRecorder{}
	client := newTestClient(t, handler, Options{BreakerMaxFailures: 2, BreakerOpenTimeout: time.Minute}, recorder)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.GetSubgraph(ctx, "X", 1, 10)
		require.True(t, apperrors.IsExternal(err))
	}

	// Act
	_, err := client.GetSubgraph(ctx, "X", 1, 10)

	// Assert
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
	assert.Equal(t, gobreaker.StateOpen, client.BreakerState())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, hits, "open breaker short-circuits the request")
	assert.Equal(t, []int{int(gobreaker.StateClosed), int(gobreaker.StateOpen)}, recorder.states)
}

func TestClient_BreakerIgnoresClientErrors(t *testing.T) {
	// Arrange
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "missing"})
	})
	client := newTestClient(t, handler, Options{BreakerMaxFailures: 1}, nil)

	// Act
	for i := 0; i < 3; i++ {
		_, err := client.GetSubgraph(context.Background(), "X", 1, 10)
		require.True(t, apperrors.IsNotFound(err))
	}

	// Assert
	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())
}

func TestClient_ContextDeadline(t *testing.T) {
	// Arrange
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	client := newTestClient(t, handler, Options{}, nil)
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Act
	_, err := client.GetSubgraph(ctx, "X", 1, 10)

	// Assert
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout))
}

func TestClient_Ping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "healthy", status: http.StatusOK},
		{name: "degraded", status: http.StatusServiceUnavailable, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/health", r.URL.Path)
				w.WriteHeader(tt.status)
			}), Options{}, nil)

			// Act
			err := client.Ping(context.Background())

			// Assert
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
