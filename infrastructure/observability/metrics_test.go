package observability

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollector_PipelineMetrics(t *testing.T) {
	// Arrange
	c := NewCollector("kgx")

	// Act
	c.RecordPublished("concept", 3, 2, 150*time.Millisecond)
	c.RecordStaleDropped("path")
	c.RecordFetchFailed("neighborhood")
	c.SetActiveSessions(4)
	c.RecordUpstream("subgraph", errors.New("boom"))

	// Assert
	body := scrape(t, c)
	assert.Contains(t, body, `kgx_graphs_published_total{mode="concept"} 1`)
	assert.Contains(t, body, `kgx_graph_nodes_added_total 3`)
	assert.Contains(t, body, `kgx_graph_links_added_total 2`)
	assert.Contains(t, body, `kgx_stale_results_dropped_total{mode="path"} 1`)
	assert.Contains(t, body, `kgx_fetch_failures_total{mode="neighborhood"} 1`)
	assert.Contains(t, body, `kgx_active_sessions 4`)
	assert.Contains(t, body, `kgx_upstream_requests_total{operation="subgraph",outcome="error"} 1`)
}

func TestCollector_BusMetrics(t *testing.T) {
	// Arrange
	c := NewCollector("kgx")

	// Act
	timer := c.StartTimer("query_duration", "ConceptQuery")
	c.Increment("query_count", "ConceptQuery")
	timer.Stop()
	c.StartTimer("other", "ConceptQuery").Stop()

	// Assert
	body := scrape(t, c)
	assert.Contains(t, body, `kgx_query_events_total{event="query_count",query="ConceptQuery"} 1`)
	assert.Contains(t, body, `kgx_query_duration_seconds_count{query="ConceptQuery"} 1`)
}

func TestCollector_Middleware(t *testing.T) {
	// Arrange
	c := NewCollector("kgx")
	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	// Act
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))

	// Assert
	body := scrape(t, c)
	assert.Contains(t, body, `kgx_http_requests_total{method="GET",route="/sessions/{id}",status="404"} 1`)
}
