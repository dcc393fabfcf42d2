package di

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kgexplorer/application/commands"
	"kgexplorer/application/commands/bus"
	commandhandlers "kgexplorer/application/commands/handlers"
	"kgexplorer/application/explorers"
	"kgexplorer/application/ports"
	"kgexplorer/application/queries"
	querybus "kgexplorer/application/queries/bus"
	queryhandlers "kgexplorer/application/queries/handlers"
	"kgexplorer/application/services"
	domainconfig "kgexplorer/domain/config"
	domainservices "kgexplorer/domain/services"
	"kgexplorer/infrastructure/cache"
	"kgexplorer/infrastructure/config"
	"kgexplorer/infrastructure/datasource/httpapi"
	"kgexplorer/infrastructure/datasource/memory"
	infraexplorers "kgexplorer/infrastructure/explorers"
	infraobservability "kgexplorer/infrastructure/observability"
	"kgexplorer/interfaces/http/rest"
	"kgexplorer/interfaces/websocket"
	apperrors "kgexplorer/pkg/errors"
	"kgexplorer/pkg/extensions"
	"kgexplorer/pkg/observability"
)

const (
	serviceName          = "kgexplorer"
	metricsNamespace     = "kgexplorer"
	cacheCleanupInterval = time.Minute
)

// DataSource is a graph data source that can report its own health
type DataSource interface {
	ports.GraphDataSource
	ports.HealthChecker
}

// ProvideLogLevel parses the configured log level into an adjustable level
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideDomainConfig builds the exploration defaults
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	return cfg.DomainConfig()
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *infraobservability.Collector {
	return infraobservability.NewCollector(metricsNamespace)
}

// ProvideTracer creates the tracer for queries and upstream calls. With tracing
// enabled spans go to the global OpenTelemetry provider.
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return observability.NewNoopTracer(serviceName)
	}
	return observability.NewTracer(serviceName)
}

// ProvideErrorHandler creates the HTTP error handler. Development builds include error details.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideDataSource creates the graph data source selected by configuration
func ProvideDataSource(
	cfg *config.Config,
	collector *infraobservability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (DataSource, error) {
	switch cfg.DataSource {
	case config.DataSourceMemory:
		source, err := memory.Load(cfg.FixturePath, logger)
		if err != nil {
			return nil, err
		}
		return source, nil
	case config.DataSourceHTTP:
		client, err := httpapi.NewClient(httpapi.Options{
			BaseURL:            cfg.GraphAPIURL,
			Token:              cfg.GraphAPIToken,
			Timeout:            cfg.UpstreamTimeout,
			RateLimit:          cfg.UpstreamRateLimit,
			Burst:              cfg.UpstreamBurst,
			BreakerMaxFailures: uint32(cfg.BreakerMaxFailures),
			BreakerOpenTimeout: cfg.BreakerOpenTimeout,
		}, collector, tracer, logger.Named("graphapi"))
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}
}

// ProvideCache creates the in-memory cache shared by queries and the vocabulary
func ProvideCache(cfg *config.Config) (*cache.InMemoryCache, func()) {
	c := cache.NewInMemoryCache(cfg.CacheMaxEntries, cacheCleanupInterval)
	return c, c.Close
}

// ProvideHookManager creates the hook manager
func ProvideHookManager() *extensions.HookManager {
	return extensions.NewHookManager()
}

// ProvidePluginManager registers the built-in plugins
func ProvidePluginManager(ctx context.Context, hooks *extensions.HookManager, logger *zap.Logger) (*extensions.PluginManager, func(), error) {
	manager := extensions.NewPluginManager(hooks)
	if err := manager.Register(ctx, infraobservability.NewAuditPlugin(logger.Named("audit"))); err != nil {
		return nil, nil, fmt.Errorf("failed to register audit plugin: %w", err)
	}
	cleanup := func() {
		if err := manager.ShutdownAll(context.Background()); err != nil {
			logger.Warn("Plugin shutdown failed", zap.Error(err))
		}
	}
	return manager, cleanup, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	cfg *config.Config,
	domainCfg *domainconfig.DomainConfig,
	source DataSource,
	memCache *cache.InMemoryCache,
	collector *infraobservability.Collector,
	tracer *observability.Tracer,
	hooks *extensions.HookManager,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	middlewares := []querybus.Middleware{
		querybus.NewTracingMiddleware(tracer),
		querybus.NewMetricsMiddleware(collector),
		querybus.NewHookMiddleware(hooks),
	}
	if cfg.QueryCacheTTL > 0 {
		middlewares = append(middlewares, querybus.NewCachingMiddleware(memCache, cfg.QueryCacheTTL))
	}
	queryBus := querybus.NewQueryBus(middlewares...)

	transform := domainservices.NewGraphTransform(domainCfg.DefaultEdgeConfidence)
	builder := domainservices.NewPathGraphBuilder(
		transform,
		domainservices.NewGraphMergeEngine(),
		domainCfg.PathEdgePlaceholder,
		domainCfg.DefaultEdgeConfidence,
	)
	subgraphs := queryhandlers.NewSubgraphHandler(source, transform, logger)
	paths := queryhandlers.NewFindPathHandler(source, subgraphs, builder, domainCfg.EnrichmentConcurrency, logger)

	for _, r := range []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.ConceptQuery{}, subgraphs},
		{queries.SubgraphQuery{}, subgraphs},
		{queries.FindPathQuery{}, paths},
	} {
		if err := queryBus.Register(r.query, r.handler); err != nil {
			return nil, fmt.Errorf("failed to register query handler: %w", err)
		}
	}
	return queryBus, nil
}

// ProvideExplorerRegistry creates the registry of built-in explorers
func ProvideExplorerRegistry(logger *zap.Logger) *explorers.Registry {
	return infraexplorers.NewDefaultRegistry(logger)
}

// ProvideHub creates the WebSocket hub. The caller runs it.
func ProvideHub(logger *zap.Logger) *websocket.Hub {
	return websocket.NewHub(logger.Named("ws"))
}

// ProvideSessionManager creates the session manager
func ProvideSessionManager(
	cfg *config.Config,
	domainCfg *domainconfig.DomainConfig,
	queryBus *querybus.QueryBus,
	registry *explorers.Registry,
	hub *websocket.Hub,
	hooks *extensions.HookManager,
	collector *infraobservability.Collector,
	logger *zap.Logger,
) (*services.SessionManager, func()) {
	defaultExplorer := explorers.ExplorerType(cfg.DefaultExplorer)
	if _, ok := registry.Get(defaultExplorer); !ok {
		logger.Warn("Unknown default explorer, falling back",
			zap.String("explorer", cfg.DefaultExplorer),
			zap.String("fallback", string(infraexplorers.DefaultExplorerType)),
		)
		defaultExplorer = infraexplorers.DefaultExplorerType
	}

	sessions := services.NewSessionManager(services.OrchestratorDeps{
		Queries:   queryBus,
		Registry:  registry,
		Publisher: hub,
		Hooks:     hooks,
		Metrics:   collector,
		Config:    domainCfg,
		Logger:    logger,
	}, defaultExplorer, cfg.SessionTTL)
	return sessions, sessions.Close
}

// ProvideVocabularyService creates the vocabulary service
func ProvideVocabularyService(
	cfg *config.Config,
	source DataSource,
	memCache *cache.InMemoryCache,
	hub *websocket.Hub,
	hooks *extensions.HookManager,
	logger *zap.Logger,
) *services.VocabularyService {
	return services.NewVocabularyService(source, memCache, cfg.VocabularyCacheTTL, hub, hooks, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	sessions *services.SessionManager,
	vocabulary *services.VocabularyService,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.RecoveryMiddleware(logger),
		bus.LoggingMiddleware(logger),
	)

	if err := commandhandlers.NewSessionHandler(sessions, logger).Register(commandBus); err != nil {
		return nil, fmt.Errorf("failed to register session commands: %w", err)
	}
	if err := commandBus.Register(commands.RefreshVocabularyCommand{}, commandhandlers.NewVocabularyHandler(vocabulary, logger)); err != nil {
		return nil, fmt.Errorf("failed to register vocabulary command: %w", err)
	}
	return commandBus, nil
}

// ProvideWatcher starts configuration hot reloading. Reloads adjust the log level
// and the exploration defaults of every session.
func ProvideWatcher(
	cfg *config.Config,
	level zap.AtomicLevel,
	sessions *services.SessionManager,
	logger *zap.Logger,
) (*config.Watcher, func(), error) {
	watcher, err := config.NewWatcher(cfg, logger.Named("config"))
	if err != nil {
		return nil, nil, err
	}

	watcher.OnChange(func(next *config.Config) {
		if l, err := zapcore.ParseLevel(next.LogLevel); err == nil {
			level.SetLevel(l)
		} else {
			logger.Warn("Ignoring invalid log level", zap.String("logLevel", next.LogLevel))
		}

		domainCfg, err := next.DomainConfig()
		if err != nil {
			logger.Warn("Ignoring invalid exploration defaults", zap.Error(err))
			return
		}
		sessions.ApplyDomainConfig(domainCfg)
	})
	return watcher, watcher.Stop, nil
}

// ProvideWebSocketServer creates the session event server
func ProvideWebSocketServer(
	cfg *config.Config,
	hub *websocket.Hub,
	sessions *services.SessionManager,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *websocket.Server {
	wsCfg := websocket.DefaultServerConfig()
	wsCfg.CheckOrigin = originChecker(cfg.AllowedOrigins)
	return websocket.NewServer(hub, sessions, wsCfg, errorHandler, logger.Named("ws"))
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	sessions *services.SessionManager,
	registry *explorers.Registry,
	vocabulary *services.VocabularyService,
	source DataSource,
	collector *infraobservability.Collector,
	ws *websocket.Server,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(
		commandBus,
		sessions,
		registry,
		vocabulary,
		source,
		collector,
		ws,
		errorHandler,
		rest.RouterConfig{
			EnableCORS:     cfg.EnableCORS,
			EnableMetrics:  cfg.EnableMetrics,
			AllowedOrigins: cfg.AllowedOrigins,
			RateLimit:      cfg.APIRateLimit,
			RateBurst:      cfg.APIRateBurst,
		},
		logger,
	)
}

// originChecker accepts requests without an Origin header and origins on the allow list
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}
