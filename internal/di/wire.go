//go:build wireinject
// +build wireinject

package di

import (
	"GoldGate/pkg/config"
	"GoldGate/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Foundations
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCacheService,

		// Repositories
		ProvideMarketStream,
		ProvideMemoryCandleStore,
		ProvideCHCandleStore,
		ProvideAuditSink,
		ProvideAuditPublisher,
		ProvideBalanceProvider,

		// Model and news services
		ProvidePredictor,
		ProvideCalibrator,
		ProvideNewsSource,

		// Decision core
		ProvideNewsBlocker,
		ProvideArbiter,

		// Use cases
		ProvideTickAggregator,
		ProvideTickCollector,
		ProvideAuditRouter,
		ProvideKafkaAuditHandler,
		ProvideDecisionRunner,
		ProvideCandlesUseCase,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
