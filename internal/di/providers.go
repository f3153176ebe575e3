package di

import (
	"context"
	"fmt"
	"time"

	"MacroPull/internal/domain/repository"
	"MacroPull/internal/domain/service"
	"MacroPull/internal/handler/api"
	internalrepo "MacroPull/internal/repository"
	"MacroPull/internal/service/alphavantage"
	icache "MacroPull/internal/service/cache"
	"MacroPull/internal/service/fred"
	"MacroPull/internal/service/provider"
	"MacroPull/internal/service/ratelimit"
	"MacroPull/internal/services/model"
	"MacroPull/internal/usecase"
	"MacroPull/pkg/cache"
	pkgch "MacroPull/pkg/clickhouse"
	"MacroPull/pkg/config"
	xhttp "MacroPull/pkg/http"
	pkgkafka "MacroPull/pkg/kafka"
	applogger "MacroPull/pkg/logger"
	"MacroPull/pkg/metrics"
	"MacroPull/pkg/server"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the shared cache service (Redis or in-memory).
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	var (
		svc cache.Service
		err error
	)
	switch cfg.Cache.Type {
	case "redis":
		svc, err = cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
	default:
		svc = cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	}
	return svc, func() { _ = svc.Close() }, nil
}

// ProvideRawCache stores provider payloads next to the shared cache.
func ProvideRawCache(svc cache.Service) icache.BytesCache {
	if rc, ok := svc.(*cache.RedisCache); ok {
		return icache.NewRedisCacheWithClient(rc.Client(), rc.Prefix())
	}
	return icache.NewTTLCache()
}

func providerOptions(cfg *config.Config, raw icache.BytesCache, l *applogger.Logger, perMinute int) []provider.Option {
	opts := []provider.Option{provider.WithLogger(l)}
	if cfg.Pipeline.RawCacheTTL > 0 {
		opts = append(opts, provider.WithCache(raw, cfg.Pipeline.RawCacheTTL))
	}
	if perMinute > 0 {
		opts = append(opts, provider.WithLimiter(ratelimit.PerMinute(perMinute, 1)))
	}
	return opts
}

// ProvideIndicatorSource creates the FRED client.
func ProvideIndicatorSource(cfg *config.Config, raw icache.BytesCache, l *applogger.Logger) service.IndicatorSource {
	return fred.New(cfg.Fred, providerOptions(cfg, raw, l, cfg.Fred.RequestsPerMinute)...)
}

// ProvidePriceSource creates the Alpha Vantage client.
func ProvidePriceSource(cfg *config.Config, raw icache.BytesCache, l *applogger.Logger) service.PriceSource {
	return alphavantage.New(cfg.Stock, providerOptions(cfg, raw, l, cfg.Stock.RequestsPerMinute)...)
}

// ProvideFeatureStore creates the ClickHouse feature store, or none.
func ProvideFeatureStore(cfg *config.Config, l *applogger.Logger) (repository.FeatureStore, func(), error) {
	if cfg.Storage.FeatureStore != "clickhouse" {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		append(pkgch.FromConfig(cfg.ClickHouse.Host, cfg.ClickHouse.Port, cfg.ClickHouse.Database, cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)...,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, pkgch.FeatureTableSchema(cfg.ClickHouse.Database, cfg.Storage.Table)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	store := internalrepo.NewCHFeatureStore(client, cfg.Storage.Table)
	store.SetLogger(l)
	return store, func() { _ = client.Close() }, nil
}

// ProvideExporter creates the CSV artifact writer.
func ProvideExporter(cfg *config.Config, l *applogger.Logger) repository.Exporter {
	e := internalrepo.NewCSVExporter(cfg.Export.CSVPath)
	e.SetLogger(l)
	return e
}

// ProvidePublisher creates the Kafka publisher, or a no-op one when Kafka is disabled.
func ProvidePublisher(cfg *config.Config) (repository.Publisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.Features, cfg.Kafka.Topics.Predictions)
	return pub, func() { _ = pub.Close() }, nil
}

// ProvideModelStore picks where fitted models live. Without an explicit
// model.store, an in-memory cache falls back to files under model.dir.
func ProvideModelStore(cfg *config.Config, svc cache.Service, l *applogger.Logger) repository.ModelStore {
	store := cfg.Model.Store
	if store == "" {
		store = "cache"
		if cfg.Cache.Type != "redis" {
			store = "file"
		}
	}
	if store == "file" {
		fms := internalrepo.NewFileModelStore(cfg.Model.Dir)
		fms.SetLogger(l)
		return fms
	}
	return internalrepo.NewCacheModelStore(svc)
}

// ProvideLocker serializes training through the shared cache.
func ProvideLocker(svc cache.Service) usecase.Locker {
	return svc
}

// ProvidePipelineBuilder creates the feature pipeline use case.
func ProvidePipelineBuilder(
	cfg *config.Config,
	l *applogger.Logger,
	indicators service.IndicatorSource,
	prices service.PriceSource,
	store repository.FeatureStore,
	exporter repository.Exporter,
	pub repository.Publisher,
	m repository.Metrics,
) *usecase.PipelineBuilder {
	b := usecase.NewPipelineBuilder(indicators, prices, store, exporter, pub, m, usecase.BuildOptions{
		SeriesID:     cfg.Fred.SeriesID,
		Symbol:       cfg.Stock.Symbol,
		Cadence:      repository.NormalizeCadence(cfg.Pipeline.Cadence),
		SnapLow:      cfg.Pipeline.SnapLowFrequency,
		FillLimit:    cfg.Pipeline.FillLimit,
		DriverColumn: cfg.Pipeline.DriverColumn,
		PriceColumns: cfg.Pipeline.PriceColumns,
	})
	b.SetLogger(l)
	return b
}

// ProvideTrainer creates the training use case.
func ProvideTrainer(
	cfg *config.Config,
	l *applogger.Logger,
	b *usecase.PipelineBuilder,
	store repository.ModelStore,
	locker usecase.Locker,
	m repository.Metrics,
) *usecase.Trainer {
	fit := model.DefaultFitOptions()
	fit.TestFraction = cfg.Model.TestFraction
	fit.Seed = cfg.Model.Seed
	fit.Split = model.SplitStrategy(cfg.Model.Split)
	t := usecase.NewTrainer(b, store, locker, m, cfg.Model.Key, fit)
	t.SetLogger(l)
	return t
}

// ProvidePredictor creates the prediction use case.
func ProvidePredictor(
	cfg *config.Config,
	l *applogger.Logger,
	b *usecase.PipelineBuilder,
	store repository.ModelStore,
	pub repository.Publisher,
	m repository.Metrics,
) *usecase.Predictor {
	p := usecase.NewPredictor(b, store, pub, m, cfg.Model.Key, cfg.Model.CrisisThreshold)
	p.SetLogger(l)
	return p
}

// ProvideKafkaRunHandler handles run requests from the runs topic.
func ProvideKafkaRunHandler(
	cfg *config.Config,
	b *usecase.PipelineBuilder,
	t *usecase.Trainer,
	p *usecase.Predictor,
	m repository.Metrics,
) pkgkafka.MessageHandler {
	return usecase.NewKafkaRunHandler(cfg.Kafka.Topics.Runs, b, t, p, m)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML, or nil
// when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.CorrelationHook{Logger: l})
	return consumer, nil
}

// ProvidePipelineHandler creates the HTTP handler.
func ProvidePipelineHandler(
	cfg *config.Config,
	l *applogger.Logger,
	b *usecase.PipelineBuilder,
	t *usecase.Trainer,
	p *usecase.Predictor,
) *api.PipelineEchoHandler {
	return api.NewPipelineEchoHandler(l, b, t, p, cfg.Model.Key)
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.PipelineEchoHandler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path))
	}
	if cfg.Server.RateLimit.RPS > 0 {
		opts = append(opts, xhttp.WithRateLimiter(ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)))
	}
	return xhttp.NewServer([]xhttp.Handler{h}, opts...)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	b *usecase.PipelineBuilder,
	t *usecase.Trainer,
	p *usecase.Predictor,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	rh pkgkafka.MessageHandler,
) *server.App {
	return server.New(cfg, l, b, t, p, srv, consumer, rh)
}
