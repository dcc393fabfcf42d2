package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"kgexplorer/application/explorers"
	"kgexplorer/application/ports"
	"kgexplorer/application/queries"
	"kgexplorer/application/queries/bus"
	"kgexplorer/domain/config"
	"kgexplorer/domain/core/aggregates"
	"kgexplorer/domain/core/validators"
	"kgexplorer/domain/core/valueobjects"
	"kgexplorer/domain/events"
	domainservices "kgexplorer/domain/services"
	"kgexplorer/pkg/errors"
	"kgexplorer/pkg/extensions"
)

// Status is the fetch state of a session
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// QueryAsker dispatches graph queries
type QueryAsker interface {
	Ask(ctx context.Context, query bus.Query) (interface{}, error)
}

// PipelineMetrics records what happens to fetch results
type PipelineMetrics interface {
	RecordPublished(mode string, addedNodes, addedLinks int, duration time.Duration)
	RecordFetchFailed(mode string)
	RecordStaleDropped(mode string)
	SetActiveSessions(count int)
}

type nopPipelineMetrics struct{}

func (nopPipelineMetrics) RecordPublished(string, int, int, time.Duration) {}
func (nopPipelineMetrics) RecordFetchFailed(string)                        {}
func (nopPipelineMetrics) RecordStaleDropped(string)                       {}
func (nopPipelineMetrics) SetActiveSessions(int)                           {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.DomainEvent) error        { return nil }
func (nopPublisher) PublishBatch(context.Context, []events.DomainEvent) error { return nil }

// SessionSnapshot is a read-only view of a session's state
type SessionSnapshot struct {
	ID         string                        `json:"id"`
	Params     valueobjects.SearchParams     `json:"params"`
	Status     Status                        `json:"status"`
	Error      string                        `json:"error,omitempty"`
	Retryable  bool                          `json:"retryable,omitempty"`
	Generation int                           `json:"generation"`
	HasGraph   bool                          `json:"hasGraph"`
	Truncated  bool                          `json:"truncated"`
	Stats      domainservices.GraphStats     `json:"stats"`
	Navigation aggregates.NavigationSnapshot `json:"navigation"`
	Explorer   explorers.ExplorerType        `json:"explorer"`
	Settings   explorers.Settings            `json:"settings"`
	UpdatedAt  time.Time                     `json:"updatedAt"`
}

// OrchestratorDeps are the collaborators shared by all sessions
type OrchestratorDeps struct {
	Queries   QueryAsker
	Registry  *explorers.Registry
	Publisher ports.EventPublisher
	Hooks     *extensions.HookManager
	Metrics   PipelineMetrics
	Config    *config.DomainConfig
	Logger    *zap.Logger
}

// Orchestrator is the state container of one explorer session.
// It resolves search params into a fetch, merges the result into the canonical graph
// and hands copies of that graph to the selected explorer. Every fetch belongs to a
// generation; a result whose generation has been superseded is dropped.
type Orchestrator struct {
	id        string
	queries   QueryAsker
	registry  *explorers.Registry
	publisher ports.EventPublisher
	hooks     *extensions.HookManager
	metrics   PipelineMetrics
	merge     *domainservices.GraphMergeEngine
	logger    *zap.Logger

	mu         sync.Mutex
	cfg        *config.DomainConfig
	validator  *validators.SearchParamsValidator
	params     valueobjects.SearchParams
	generation int
	status     Status
	lastErr    *errors.AppError
	graph      *aggregates.GraphState
	truncated  bool
	history    *aggregates.NavigationHistory
	explorer   explorers.ExplorerType
	settings   map[explorers.ExplorerType]explorers.Settings
	updatedAt  time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates a session state container
func NewOrchestrator(id string, explorerType explorers.ExplorerType, deps OrchestratorDeps) *Orchestrator {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = nopPublisher{}
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopPipelineMetrics{}
	}
	hooks := deps.Hooks
	if hooks == nil {
		hooks = extensions.NewHookManager()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := deps.Registry
	if registry == nil {
		registry = explorers.NewRegistry(logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		id:        id,
		queries:   deps.Queries,
		registry:  registry,
		publisher: publisher,
		hooks:     hooks,
		metrics:   metrics,
		merge:     domainservices.NewGraphMergeEngine(),
		logger:    logger.With(zap.String("sessionID", id)),
		cfg:       cfg,
		validator: validators.NewSearchParamsValidator(cfg),
		params:    valueobjects.IdleSearch(),
		status:    StatusIdle,
		history:   aggregates.NewNavigationHistory(cfg.MaxHistoryEntries),
		explorer:  explorerType,
		settings:  make(map[explorers.ExplorerType]explorers.Settings),
		updatedAt: time.Now(),
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

// ID returns the session id
func (o *Orchestrator) ID() string {
	return o.id
}

// SetDomainConfig swaps the defaults and limits used for subsequent queries
func (o *Orchestrator) SetDomainConfig(cfg *config.DomainConfig) {
	if cfg == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg = cfg
	o.validator = validators.NewSearchParamsValidator(cfg)
}

// SetSearchParams replaces the active query and starts its fetch.
// Invalid params are rejected without touching state. Idle params behave like ClearSearchParams.
// The returned generation identifies the fetch.
func (o *Orchestrator) SetSearchParams(ctx context.Context, params valueobjects.SearchParams) (int, error) {
	params = params.Normalize()

	o.mu.Lock()
	cfg, validator := o.cfg, o.validator
	o.mu.Unlock()

	if err := validator.Validate(params); err != nil {
		return 0, err
	}
	query, err := queries.ResolveQuery(params, cfg)
	if err != nil {
		return 0, errors.NewValidationError(err.Error())
	}
	if query == nil {
		return o.ClearSearchParams(ctx), nil
	}

	o.mu.Lock()
	o.generation++
	generation := o.generation
	o.params = params
	o.status = StatusLoading
	o.lastErr = nil
	o.updatedAt = time.Now()
	o.wg.Add(1)
	o.mu.Unlock()

	o.logger.Debug("Search params changed",
		zap.Int("generation", generation),
		zap.String("params", params.String()),
	)
	o.publish(ctx, events.NewSearchParamsChanged(o.id, generation, params, time.Now()))

	go o.runFetch(generation, params, query, cfg.FetchTimeout)
	return generation, nil
}

// ClearSearchParams sets the idle query. Any in-flight fetch becomes stale.
// The canonical graph is kept.
func (o *Orchestrator) ClearSearchParams(ctx context.Context) int {
	o.mu.Lock()
	o.generation++
	generation := o.generation
	o.params = valueobjects.IdleSearch()
	o.status = StatusIdle
	o.lastErr = nil
	o.updatedAt = time.Now()
	o.mu.Unlock()

	o.publish(ctx, events.NewSearchParamsChanged(o.id, generation, valueobjects.IdleSearch(), time.Now()))
	return generation
}

func (o *Orchestrator) runFetch(generation int, params valueobjects.SearchParams, query bus.Query, timeout time.Duration) {
	defer o.wg.Done()

	ctx := o.baseCtx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := o.queries.Ask(ctx, query)
	duration := time.Since(start)

	if err != nil {
		o.fail(generation, params, err)
		return
	}

	graphResult, ok := result.(*queries.GraphResult)
	if !ok || graphResult == nil {
		o.fail(generation, params, fmt.Errorf("unexpected query result %T", result))
		return
	}
	o.publishResult(generation, params, graphResult, duration)
}

// isCurrent must be called with o.mu held
func (o *Orchestrator) isCurrent(generation int) bool {
	return generation == o.generation
}

func (o *Orchestrator) dropStale(generation int, params valueobjects.SearchParams, current int) {
	o.logger.Debug("Dropping stale fetch result",
		zap.Int("generation", generation),
		zap.Int("currentGeneration", current),
		zap.String("params", params.String()),
	)
	o.metrics.RecordStaleDropped(params.Mode.String())
	o.hooks.ExecuteAsync(o.baseCtx, extensions.HookStaleResult, &extensions.HookData{
		SessionID:  o.id,
		Generation: generation,
		Operation:  "fetch",
		Target:     params.String(),
	})
	o.publish(o.baseCtx, events.NewStaleResultDropped(o.id, generation, current, time.Now()))
}

func (o *Orchestrator) fail(generation int, params valueobjects.SearchParams, err error) {
	appErr := errors.FromFetchError("graph-api", err)

	o.mu.Lock()
	if !o.isCurrent(generation) {
		current := o.generation
		o.mu.Unlock()
		o.dropStale(generation, params, current)
		return
	}
	o.status = StatusError
	o.lastErr = appErr
	o.updatedAt = time.Now()
	o.mu.Unlock()

	o.logger.Warn("Graph fetch failed",
		zap.Int("generation", generation),
		zap.String("params", params.String()),
		zap.Bool("transient", appErr.Transient()),
		zap.Error(err),
	)
	o.metrics.RecordFetchFailed(params.Mode.String())
	o.publish(o.baseCtx, events.NewGraphFetchFailed(o.id, generation, params.Mode, appErr.UserMessage(), time.Now()))
}

func (o *Orchestrator) publishResult(generation int, params valueobjects.SearchParams, result *queries.GraphResult, duration time.Duration) {
	hookData := &extensions.HookData{
		SessionID:  o.id,
		Generation: generation,
		Operation:  "merge",
		Target:     params.String(),
		Before:     result.Graph,
	}
	if err := o.hooks.Execute(o.baseCtx, extensions.HookBeforeGraphMerge, hookData); err != nil {
		o.fail(generation, params, err)
		return
	}

	o.mu.Lock()
	if !o.isCurrent(generation) {
		current := o.generation
		o.mu.Unlock()
		o.dropStale(generation, params, current)
		return
	}
	merged := o.merge.MergeWithStats(o.graph, result.Graph, params.EffectiveLoadMode())
	o.graph = merged.Graph
	o.truncated = result.Truncated
	o.status = StatusReady
	o.lastErr = nil
	o.updatedAt = time.Now()
	nodeCount, edgeCount := o.graph.NodeCount(), o.graph.EdgeCount()
	// Plugins observe a copy of the canonical graph
	observed := merged
	observed.Graph = merged.Graph.Clone()
	o.mu.Unlock()

	o.logger.Debug("Graph published",
		zap.Int("generation", generation),
		zap.String("params", params.String()),
		zap.Int("nodeCount", nodeCount),
		zap.Int("edgeCount", edgeCount),
		zap.Int("addedNodes", merged.AddedNodes),
		zap.Int("addedLinks", merged.AddedLinks),
		zap.Bool("truncated", result.Truncated),
		zap.Duration("duration", duration),
	)

	o.metrics.RecordPublished(params.Mode.String(), merged.AddedNodes, merged.AddedLinks, duration)
	hookData.After = observed
	o.hooks.ExecuteAsync(o.baseCtx, extensions.HookAfterGraphMerge, hookData)
	o.publish(o.baseCtx, events.NewGraphPublished(o.id, generation, params,
		nodeCount, edgeCount, merged.AddedNodes, merged.AddedLinks, duration, time.Now()))
}

// Wait blocks until every started fetch has finished
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close abandons in-flight fetches and waits for them to return
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

// Graph returns a copy of the canonical graph; nil means no query has completed
func (o *Orchestrator) Graph() *aggregates.GraphState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.graph.Clone()
}

// Status returns the fetch state and the error message when it failed
func (o *Orchestrator) Status() (Status, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastErr != nil {
		return o.status, o.lastErr.UserMessage()
	}
	return o.status, ""
}

// Err returns the last fetch error of the current generation
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastErr == nil {
		return nil
	}
	return o.lastErr
}

// SearchParams returns the active query
func (o *Orchestrator) SearchParams() valueobjects.SearchParams {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.params
}

// Generation returns the current fetch generation
func (o *Orchestrator) Generation() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

// UpdatedAt returns the time of the last state change
func (o *Orchestrator) UpdatedAt() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.updatedAt
}

// Snapshot returns a copy of the full session state
func (o *Orchestrator) Snapshot() SessionSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := SessionSnapshot{
		ID:         o.id,
		Params:     o.params,
		Status:     o.status,
		Generation: o.generation,
		HasGraph:   o.graph != nil,
		Truncated:  o.truncated,
		Stats:      domainservices.ComputeGraphStats(o.graph),
		Navigation: o.history.Snapshot(),
		Explorer:   o.explorer,
		Settings:   o.settingsLocked(o.explorer),
		UpdatedAt:  o.updatedAt,
	}
	if o.lastErr != nil {
		snap.Error = o.lastErr.UserMessage()
		snap.Retryable = errors.IsTransient(o.lastErr)
	}
	return snap
}

func (o *Orchestrator) publish(ctx context.Context, event events.DomainEvent) {
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Warn("Failed to publish event",
			zap.String("eventType", event.GetEventType()),
			zap.Error(err),
		)
	}
}
