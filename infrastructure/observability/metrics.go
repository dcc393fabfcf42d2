// Package observability exposes the service's Prometheus metrics
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kgexplorer/application/queries/bus"
	"kgexplorer/application/services"
)

var (
	_ bus.Metrics              = (*Collector)(nil)
	_ services.PipelineMetrics = (*Collector)(nil)
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Query bus metrics
	QueryEvents   *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	// Pipeline metrics
	GraphsPublished *prometheus.CounterVec
	NodesAdded      prometheus.Counter
	LinksAdded      prometheus.Counter
	FetchFailures   *prometheus.CounterVec
	StaleDropped    *prometheus.CounterVec
	FetchDuration   *prometheus.HistogramVec
	ActiveSessions  prometheus.Gauge

	// Upstream metrics
	UpstreamRequests *prometheus.CounterVec
	BreakerState     *prometheus.GaugeVec
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		QueryEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_events_total",
				Help:      "Query bus events by query type",
			},
			[]string{"event", "query"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query handler duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query"},
		),

		GraphsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graphs_published_total",
				Help:      "Fetch results merged into a session graph",
			},
			[]string{"mode"},
		),
		NodesAdded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_nodes_added_total",
				Help:      "Nodes added to session graphs by merges",
			},
		),
		LinksAdded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_links_added_total",
				Help:      "Links added to session graphs by merges",
			},
		),
		FetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_failures_total",
				Help:      "Fetches for the current query that failed",
			},
			[]string{"mode"},
		),
		StaleDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_results_dropped_total",
				Help:      "Fetch results discarded because a newer query superseded them",
			},
			[]string{"mode"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Time from query start to publication",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of live explorer sessions",
			},
		),

		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Requests to the graph API",
			},
			[]string{"operation", "outcome"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "upstream_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.QueryEvents,
		c.QueryDuration,
		c.GraphsPublished,
		c.NodesAdded,
		c.LinksAdded,
		c.FetchFailures,
		c.StaleDropped,
		c.FetchDuration,
		c.ActiveSessions,
		c.UpstreamRequests,
		c.BreakerState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

type histogramTimer struct {
	observer prometheus.Observer
	start    time.Time
}

func (t histogramTimer) Stop() {
	t.observer.Observe(time.Since(t.start).Seconds())
}

// StartTimer implements bus.Metrics. Only query_duration is tracked; other metrics get a no-op timer.
func (c *Collector) StartTimer(metric, label string) bus.Timer {
	if metric != "query_duration" {
		return histogramTimer{observer: prometheus.ObserverFunc(func(float64) {}), start: time.Now()}
	}
	return histogramTimer{observer: c.QueryDuration.WithLabelValues(label), start: time.Now()}
}

// Increment implements bus.Metrics
func (c *Collector) Increment(metric, label string) {
	c.QueryEvents.WithLabelValues(metric, label).Inc()
}

// RecordPublished implements services.PipelineMetrics
func (c *Collector) RecordPublished(mode string, addedNodes, addedLinks int, duration time.Duration) {
	c.GraphsPublished.WithLabelValues(mode).Inc()
	c.NodesAdded.Add(float64(addedNodes))
	c.LinksAdded.Add(float64(addedLinks))
	c.FetchDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordFetchFailed implements services.PipelineMetrics
func (c *Collector) RecordFetchFailed(mode string) {
	c.FetchFailures.WithLabelValues(mode).Inc()
}

// RecordStaleDropped implements services.PipelineMetrics
func (c *Collector) RecordStaleDropped(mode string) {
	c.StaleDropped.WithLabelValues(mode).Inc()
}

// SetActiveSessions implements services.PipelineMetrics
func (c *Collector) SetActiveSessions(count int) {
	c.ActiveSessions.Set(float64(count))
}

// RecordUpstream counts a graph API call
func (c *Collector) RecordUpstream(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.UpstreamRequests.WithLabelValues(operation, outcome).Inc()
}

// SetBreakerState records a circuit breaker transition
func (c *Collector) SetBreakerState(name string, state int) {
	c.BreakerState.WithLabelValues(name).Set(float64(state))
}

// Middleware records request counts and durations by chi route pattern
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
