// Package httpapi implements the graph data source over the knowledge-graph REST API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"kgexplorer/application/ports"
	"kgexplorer/domain/core/raw"
	apperrors "kgexplorer/pkg/errors"
	"kgexplorer/pkg/observability"
)

const serviceName = "graph-api"

var (
	_ ports.GraphDataSource = (*Client)(nil)
	_ ports.HealthChecker   = (*Client)(nil)
)

// Recorder receives upstream call outcomes and breaker transitions
type Recorder interface {
	RecordUpstream(operation string, err error)
	SetBreakerState(name string, state int)
}

type nopRecorder struct{}

func (nopRecorder) RecordUpstream(string, error) {}
func (nopRecorder) SetBreakerState(string, int)  {}

// Options configures the API client
type Options struct {
	BaseURL            string
	Token              string
	Timeout            time.Duration
	RateLimit          float64 // requests per second, 0 = unlimited
	Burst              int
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// Client calls the graph API through a rate limiter and a circuit breaker
type Client struct {
	baseURL  *url.URL
	token    string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	tracer   *observability.Tracer
	recorder Recorder
	logger   *zap.Logger
}

// NewClient creates an API client. A nil recorder or tracer disables that concern.
func NewClient(opts Options, recorder Recorder, tracer *observability.Tracer, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid graph API url %q", opts.BaseURL)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if tracer == nil {
		tracer = observability.NewTracer(serviceName)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.BreakerMaxFailures == 0 {
		opts.BreakerMaxFailures = 5
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:  base,
		token:    opts.Token,
		http:     &http.Client{Timeout: opts.Timeout},
		limiter:  rate.NewLimiter(limit, burst),
		tracer:   tracer,
		recorder: recorder,
		logger:   logger,
	}

	maxFailures := opts.BreakerMaxFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 1,
		Timeout:     opts.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			recorder.SetBreakerState(name, int(to))
		},
		// Client errors and cancellations say nothing about upstream health
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			appErr := apperrors.GetAppError(err)
			return appErr != nil && appErr.HTTPStatus > 0 && appErr.HTTPStatus < 500 &&
				appErr.Type != apperrors.ErrorTypeExternal
		},
	})
	recorder.SetBreakerState(serviceName, int(gobreaker.StateClosed))

	return c, nil
}

// GetSubgraph implements ports.GraphDataSource
func (c *Client) GetSubgraph(ctx context.Context, centerID string, depth, limit int) (*raw.Graph, error) {
	q := url.Values{}
	q.Set("center", centerID)
	q.Set("depth", strconv.Itoa(depth))
	q.Set("limit", strconv.Itoa(limit))

	var graph raw.Graph
	err := c.do(ctx, "subgraph", http.MethodGet, "/query/subgraph", q, nil, &graph,
		attribute.String("graph.center", centerID),
		attribute.Int("graph.depth", depth),
	)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(graph.Nodes) > limit {
		graph.Truncated = true
	}
	return &graph, nil
}

// FindConnection implements ports.GraphDataSource
func (c *Client) FindConnection(ctx context.Context, fromID, toID string, maxHops int) (*raw.ConnectionResult, error) {
	q := url.Values{}
	q.Set("from", fromID)
	q.Set("to", toID)
	q.Set("max_hops", strconv.Itoa(maxHops))

	var result raw.ConnectionResult
	err := c.do(ctx, "connect", http.MethodGet, "/query/connect", q, nil, &result,
		attribute.String("graph.from", fromID),
		attribute.String("graph.to", toID),
	)
	if err != nil {
		return nil, err
	}
	if result.Count == 0 {
		result.Count = len(result.Paths)
	}
	return &result, nil
}

// GetVocabularyTypes implements ports.GraphDataSource
func (c *Client) GetVocabularyTypes(ctx context.Context, opts ports.VocabularyOptions) (*raw.VocabularyTypes, error) {
	q := url.Values{}
	q.Set("include_inactive", strconv.FormatBool(opts.IncludeInactive))
	if opts.Category != "" {
		q.Set("category", opts.Category)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var types raw.VocabularyTypes
	if err := c.do(ctx, "vocabulary_types", http.MethodGet, "/vocabulary/types", q, nil, &types); err != nil {
		return nil, err
	}
	return &types, nil
}

// RefreshVocabularyCategories implements ports.GraphDataSource
func (c *Client) RefreshVocabularyCategories(ctx context.Context, opts ports.RefreshOptions) error {
	body := map[string]bool{"only_computed": opts.OnlyComputed}
	return c.do(ctx, "vocabulary_refresh", http.MethodPost, "/vocabulary/refresh-categories", nil, body, nil)
}

// Ping implements ports.HealthChecker. It bypasses the breaker so health reflects the upstream directly.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewNetworkError("graph API unreachable", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewUnavailableError(serviceName).
			WithDetails(map[string]interface{}{"status": resp.StatusCode})
	}
	return nil
}

// BreakerState reports the breaker's current state
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out interface{}, attrs ...attribute.KeyValue) (err error) {
	ctx, span := c.tracer.Start(ctx, operation, attrs...)
	defer func() {
		if err != nil {
			observability.RecordError(span, err)
		}
		span.End()
		c.recorder.RecordUpstream(operation, err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.FromFetchError(serviceName, fmt.Errorf("rate limiter: %w", err))
	}

	start := time.Now()
	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, query, body, out)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.Warn("Graph API call rejected by circuit breaker",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return apperrors.NewUnavailableError(serviceName).WithCause(err)
	case err != nil:
		c.logger.Debug("Graph API call failed",
			zap.String("operation", operation),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return err
	}

	c.logger.Debug("Graph API call completed",
		zap.String("operation", operation),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return apperrors.FromFetchError(serviceName, ctxErr)
		}
		return apperrors.NewNetworkError("graph API request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewExternalError(serviceName, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// statusError maps an upstream error status onto an AppError, keeping the API's detail message
func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	_ = json.Unmarshal(data, &payload)
	detail := payload.Detail
	if detail == "" {
		detail = payload.Error
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	var appErr *apperrors.AppError
	switch {
	case resp.StatusCode == http.StatusNotFound:
		appErr = apperrors.NewNotFoundError("concept")
		appErr.Message = detail
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		appErr = apperrors.NewValidationError(detail)
	case resp.StatusCode == http.StatusTooManyRequests:
		appErr = apperrors.NewRateLimitError(0, "upstream window")
		appErr.Message = detail
		if retry := resp.Header.Get("Retry-After"); retry != "" {
			return appErr.WithDetails(map[string]interface{}{"upstreamStatus": resp.StatusCode, "retryAfter": retry})
		}
	case resp.StatusCode == http.StatusServiceUnavailable:
		appErr = apperrors.NewUnavailableError(serviceName).WithCause(errors.New(detail))
		if retry := resp.Header.Get("Retry-After"); retry != "" {
			return appErr.WithDetails(map[string]interface{}{"upstreamStatus": resp.StatusCode, "retryAfter": retry})
		}
	case resp.StatusCode == http.StatusGatewayTimeout:
		appErr = apperrors.NewTimeoutError(serviceName).WithCause(errors.New(detail))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		appErr = apperrors.NewExternalError(serviceName, errors.New(detail))
		appErr.HTTPStatus = resp.StatusCode
		return appErr.WithCode("UPSTREAM_AUTH")
	default:
		appErr = apperrors.NewExternalError(serviceName, errors.New(detail))
	}
	return appErr.WithDetails(map[string]interface{}{"upstreamStatus": resp.StatusCode})
}
