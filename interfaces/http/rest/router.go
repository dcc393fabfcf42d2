package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"kgexplorer/application/commands/bus"
	"kgexplorer/application/explorers"
	"kgexplorer/application/ports"
	"kgexplorer/application/services"
	"kgexplorer/infrastructure/observability"
	"kgexplorer/interfaces/http/rest/handlers"
	"kgexplorer/interfaces/http/rest/middleware"
	"kgexplorer/interfaces/websocket"
	apperrors "kgexplorer/pkg/errors"
)

const readinessTimeout = 3 * time.Second

// RouterConfig holds the HTTP surface switches
type RouterConfig struct {
	EnableCORS     bool
	EnableMetrics  bool
	AllowedOrigins []string

	// Per-client limit on /api/v2, requests per second (0 = unlimited)
	RateLimit float64
	RateBurst int
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	sessions   *services.SessionManager
	registry   *explorers.Registry
	vocabulary *services.VocabularyService
	health     ports.HealthChecker
	metrics    *observability.Collector
	ws         *websocket.Server
	errors     *apperrors.ErrorHandler
	config     RouterConfig
	logger     *zap.Logger
}

// NewRouter creates a new router instance. metrics and ws may be nil.
func NewRouter(
	commandBus *bus.CommandBus,
	sessions *services.SessionManager,
	registry *explorers.Registry,
	vocabulary *services.VocabularyService,
	health ports.HealthChecker,
	metrics *observability.Collector,
	ws *websocket.Server,
	errorHandler *apperrors.ErrorHandler,
	config RouterConfig,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		sessions:   sessions,
		registry:   registry,
		vocabulary: vocabulary,
		health:     health,
		metrics:    metrics,
		ws:         ws,
		errors:     errorHandler,
		config:     config,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(rt.errors.Middleware)
	router.Use(versionMiddleware)
	if rt.metrics != nil && rt.config.EnableMetrics {
		router.Use(rt.metrics.Middleware)
	}

	if rt.config.EnableCORS {
		origins := rt.config.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-Graph-Status", "X-Graph-Generation"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil && rt.config.EnableMetrics {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	if rt.ws != nil {
		router.Get("/ws/sessions/{sessionID}", rt.ws.HandleEvents)
	}

	sessionHandler := handlers.NewSessionHandler(rt.commandBus, rt.sessions, rt.errors, rt.logger)
	catalogHandler := handlers.NewCatalogHandler(rt.commandBus, rt.registry, rt.vocabulary, rt.errors, rt.logger)

	router.Route("/api/v2", func(r chi.Router) {
		if rt.config.RateLimit > 0 {
			r.Use(middleware.RateLimit(middleware.NewClientRateLimiter(rt.config.RateLimit, rt.config.RateBurst), rt.errors))
		}

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.CreateSession)
			r.Get("/", sessionHandler.ListSessions)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", sessionHandler.GetSession)
				r.Delete("/", sessionHandler.DeleteSession)

				r.Put("/search", sessionHandler.SetSearch)
				r.Delete("/search", sessionHandler.ClearSearch)
				r.Get("/graph", sessionHandler.GetGraph)

				r.Post("/navigate", sessionHandler.NavigateTo)
				r.Post("/back", sessionHandler.NavigateBack)
				r.Post("/forward", sessionHandler.NavigateForward)
				r.Put("/focus", sessionHandler.SetFocus)
				r.Post("/follow", sessionHandler.FollowConcept)

				r.Put("/explorer", sessionHandler.SelectExplorer)
				r.Put("/explorer/settings", sessionHandler.UpdateSettings)
				r.Get("/render", sessionHandler.Render)

				if rt.ws != nil {
					r.Get("/events", rt.ws.HandleEvents)
				}
			})
		})

		r.Get("/explorers", catalogHandler.ListExplorers)

		r.Route("/vocabulary", func(r chi.Router) {
			r.Get("/types", catalogHandler.ListTypes)
			r.Get("/categories", catalogHandler.ListCategories)
			r.Post("/refresh", catalogHandler.RefreshVocabulary)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready only when the graph data source answers
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.health != nil {
		ctx, cancel := context.WithTimeout(req.Context(), readinessTimeout)
		defer cancel()
		if err := rt.health.Ping(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// versionMiddleware adds API version headers to API responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("X-API-Version", "v2")
		}
		next.ServeHTTP(w, r)
	})
}
