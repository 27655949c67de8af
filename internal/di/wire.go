//go:build wireinject
// +build wireinject

package di

import (
	"HeatCycle/pkg/config"
	"HeatCycle/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Shared infrastructure
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideSampleStorage,
		ProvideHistory,
		ProvideRecordStore,
		ProvideSamplePublisher,
		ProvideRecordPublisher,
		ProvideStateStream,

		// Analysis services
		ProvideAnalysisConfig,
		ProvideWindowResolver,
		ProvideEntities,
		ProvideBoundaryDetector,
		ProvideConsumptionIntegrator,
		ProvideRecordCache,

		// Use cases
		ProvideSampleProcessor,
		ProvideSampleCollector,
		ProvideKafkaSamplesHandler,
		ProvideDailyMetricsUseCase,
		ProvideOptimumUseCase,
		ProvideAnalyzer,
		ProvideScheduler,

		// HTTP
		ProvideRecordsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
