//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"MacroPull/pkg/config"
	"MacroPull/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCache,
		ProvideRawCache,
		ProvideFeatureStore,
		ProvideExporter,
		ProvidePublisher,
		ProvideModelStore,
		ProvideLocker,

		// Sources
		ProvideIndicatorSource,
		ProvidePriceSource,

		// Use cases
		ProvidePipelineBuilder,
		ProvideTrainer,
		ProvidePredictor,
		ProvideKafkaRunHandler,

		// Transport
		ProvideKafkaConsumer,
		ProvidePipelineHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}
