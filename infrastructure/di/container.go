package di

import (
	"go.uber.org/zap"

	"kgexplorer/application/commands/bus"
	"kgexplorer/application/explorers"
	querybus "kgexplorer/application/queries/bus"
	"kgexplorer/application/services"
	domainconfig "kgexplorer/domain/config"
	"kgexplorer/infrastructure/cache"
	"kgexplorer/infrastructure/config"
	infraobservability "kgexplorer/infrastructure/observability"
	"kgexplorer/interfaces/http/rest"
	"kgexplorer/interfaces/websocket"
	"kgexplorer/pkg/extensions"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domainconfig.DomainConfig
	Logger       *zap.Logger
	LogLevel     zap.AtomicLevel
	Source       DataSource
	Cache        *cache.InMemoryCache
	Metrics      *infraobservability.Collector
	Plugins      *extensions.PluginManager
	QueryBus     *querybus.QueryBus
	CommandBus   *bus.CommandBus
	Registry     *explorers.Registry
	Hub          *websocket.Hub
	Sessions     *services.SessionManager
	Vocabulary   *services.VocabularyService
	Watcher      *config.Watcher
	Router       *rest.Router
}
