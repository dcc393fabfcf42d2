//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"kgexplorer/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideDomainConfig,
	ProvideCollector,
	ProvideTracer,
	ProvideErrorHandler,
	ProvideDataSource,
	ProvideCache,
	ProvideHookManager,
	ProvidePluginManager,
	ProvideQueryBus,
	ProvideExplorerRegistry,
	ProvideHub,
	ProvideSessionManager,
	ProvideVocabularyService,
	ProvideCommandBus,
	ProvideWatcher,
	ProvideWebSocketServer,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The cleanup function
// releases resources in reverse construction order.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
