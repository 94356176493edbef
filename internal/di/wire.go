//go:build wireinject
// +build wireinject

package di

import (
	"PerpSignals/pkg/config"
	"PerpSignals/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideStore,
		ProvideCache,
		ProvidePriceCache,
		ProvideEventPublisher,
		ProvideTradeJournal,

		// Market and model services
		ProvideMarketData,
		ProvideMarketStream,
		ProvideProposalProviders,
		ProvideNotifier,

		// Engine
		ProvideState,
		ProvideShadowTracker,
		ProvideLifecycleManager,
		ProvideScanUseCase,
		ProvideMonitorUseCase,
		ProvideOptimizeUseCase,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
