package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"GoldGate/internal/handler/api"
	mid "GoldGate/internal/middleware"
	internalrepo "GoldGate/internal/repository"
	icache "GoldGate/internal/service/cache"
	"GoldGate/internal/service/finnhub"
	"GoldGate/internal/service/ratelimit"
	"GoldGate/internal/services/decision"
	"GoldGate/internal/services/model"
	"GoldGate/internal/services/news"
	"GoldGate/internal/usecase"

	"GoldGate/internal/domain/repository"
	domsvc "GoldGate/internal/domain/service"
	pkgcache "GoldGate/pkg/cache"
	pkgch "GoldGate/pkg/clickhouse"
	"GoldGate/pkg/config"
	xhttp "GoldGate/pkg/http"
	pkgkafka "GoldGate/pkg/kafka"
	"GoldGate/pkg/logger"
	"GoldGate/pkg/metrics"
	"GoldGate/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SchemaStatements()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
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
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML. Only
// the kafka audit backend needs one; other backends get nil.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Audit.Backend != "kafka" {
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
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMarketStream creates the Finnhub WebSocket stream.
func ProvideMarketStream(cfg *config.Config, log *logger.Logger) repository.MarketStream {
	return finnhub.New(cfg, log)
}

// ProvideMemoryCandleStore creates the in-process rolling candle store the
// decision loop reads from.
func ProvideMemoryCandleStore(cfg *config.Config) *internalrepo.MemoryCandleStore {
	maxBars := cfg.Decision.Lookback * 2
	return internalrepo.NewMemoryCandleStore(maxBars)
}

// ProvideCHCandleStore creates the ClickHouse candle store used for history
// warmup, closed-bar persistence, and API range queries.
func ProvideCHCandleStore(ch *pkgch.Client, log *logger.Logger) *internalrepo.CHCandleStore {
	s := internalrepo.NewCHCandleStore(ch)
	s.SetLogger(log)
	return s
}

// ProvideCacheService picks Redis or in-process cache for the news feed.
func ProvideCacheService(cfg *config.Config, log *logger.Logger) pkgcache.Service {
	if cfg.Redis.Enabled {
		host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
		if err == nil {
			port, _ := strconv.Atoi(portStr)
			rc, rerr := pkgcache.NewRedisCache(
				pkgcache.WithRedisHost(host),
				pkgcache.WithRedisPort(port),
				pkgcache.WithRedisPassword(cfg.Redis.Password),
				pkgcache.WithRedisDB(cfg.Redis.DB),
				pkgcache.WithRedisPrefix("goldgate"),
			)
			if rerr == nil {
				return pkgcache.NewLayeredCache(rc)
			}
			log.Warn("redis unavailable, using memory cache", logger.Error(rerr))
		} else {
			log.Warn("bad redis addr, using memory cache", logger.String("addr", cfg.Redis.Addr), logger.Error(err))
		}
	}
	return pkgcache.NewMemoryCache()
}

// ProvidePredictor creates the HTTP model client.
func ProvidePredictor(cfg *config.Config) domsvc.Predictor {
	return model.NewHTTPPredictor(cfg)
}

// ProvideCalibrator creates the HTTP calibration client.
func ProvideCalibrator(cfg *config.Config) domsvc.Calibrator {
	return model.NewHTTPCalibrator(cfg)
}

// ProvideNewsSource creates the Finnhub news fetcher.
func ProvideNewsSource(cfg *config.Config, log *logger.Logger, c pkgcache.Service) domsvc.NewsSource {
	return news.NewFetcher(cfg, log, c, ratelimit.New())
}

// ProvideNewsBlocker creates the high-impact news blocker.
func ProvideNewsBlocker(cfg *config.Config, log *logger.Logger) *decision.NewsEventBlocker {
	return decision.NewNewsEventBlocker(cfg, log)
}

// ProvideArbiter assembles the decision gates.
func ProvideArbiter(cfg *config.Config, log *logger.Logger, blocker *decision.NewsEventBlocker) *decision.DecisionArbiter {
	return decision.NewDecisionArbiter(
		cfg, log,
		decision.NewRegimeClassifier(cfg, log),
		decision.NewCalibrationGate(cfg, log),
		decision.NewHTFAlignmentChecker(cfg, log),
		decision.NewRuleFilter(cfg, log),
		decision.NewRiskSizer(cfg, log),
		blocker,
	)
}

// ProvideAuditSink creates the ClickHouse audit log.
func ProvideAuditSink(ch *pkgch.Client) (repository.AuditSink, error) {
	sink := internalrepo.NewClickHouseAuditSink(ch)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sink.Init(ctx); err != nil {
		return nil, fmt.Errorf("audit sink init: %w", err)
	}
	return sink, nil
}

// ProvideAuditPublisher creates the Kafka audit publisher.
func ProvideAuditPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AuditPublisher {
	return internalrepo.NewKafkaAuditPublisher(producer, cfg.Kafka.Topic)
}

// ProvideAuditRouter routes audit records to the configured backend.
func ProvideAuditRouter(
	pub repository.AuditPublisher,
	sink repository.AuditSink,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.AuditRouter {
	return usecase.NewAuditRouter(pub, sink, m, cfg.Audit.Backend)
}

// ProvideKafkaAuditHandler registers the consumer handler for the audit topic.
func ProvideKafkaAuditHandler(sink repository.AuditSink, m repository.Metrics, cfg *config.Config) *usecase.KafkaAuditHandler {
	return usecase.NewKafkaAuditHandler(cfg.Kafka.Topic, sink, m)
}

// ProvideBalanceProvider serves the configured account balance.
func ProvideBalanceProvider(cfg *config.Config) repository.BalanceProvider {
	return internalrepo.NewStaticBalanceProvider(cfg.Risk.AccountBalance)
}

// ProvideTickAggregator folds live ticks into candles for every timeframe.
func ProvideTickAggregator(
	cfg *config.Config,
	store *internalrepo.MemoryCandleStore,
	chStore *internalrepo.CHCandleStore,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.TickAggregator {
	return usecase.NewTickAggregator(cfg, store, chStore, m, log)
}

// ProvideTickCollector connects the stream to the aggregator behind the
// buffering pipeline.
func ProvideTickCollector(
	stream repository.MarketStream,
	agg *usecase.TickAggregator,
	m repository.Metrics,
) *usecase.TickCollector {
	pipe := mid.NewRealtimePipeline(agg, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(stream, agg, m, pipe)
}

// ProvideDecisionRunner assembles the per-interval evaluation loop.
func ProvideDecisionRunner(
	cfg *config.Config,
	log *logger.Logger,
	store *internalrepo.MemoryCandleStore,
	pred domsvc.Predictor,
	calib domsvc.Calibrator,
	source domsvc.NewsSource,
	blocker *decision.NewsEventBlocker,
	arbiter *decision.DecisionArbiter,
	router *usecase.AuditRouter,
	balance repository.BalanceProvider,
	m repository.Metrics,
) *usecase.DecisionRunner {
	return usecase.NewDecisionRunner(cfg, log, store, pred, calib, source, blocker, arbiter, router, balance, m)
}

// ProvideCandlesUseCase serves candle range queries from ClickHouse.
func ProvideCandlesUseCase(chStore *internalrepo.CHCandleStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(chStore)
}

// ProvideHTTPHandler creates the decision API handler.
func ProvideHTTPHandler(
	cfg *config.Config,
	log *logger.Logger,
	runner *usecase.DecisionRunner,
	candles *usecase.CandlesUseCase,
	blocker *decision.NewsEventBlocker,
	sink repository.AuditSink,
	collector *usecase.TickCollector,
) xhttp.Handler {
	h := api.NewDecisionsEchoHandler(log, cfg.Symbol, runner, candles, blocker, sink)
	var bytesCache icache.BytesCache = icache.NewTTLCache()
	if cfg.Redis.Enabled {
		bytesCache = icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	h.SetCache(bytesCache)
	h.SetStreamProbe(collector)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	collector *usecase.TickCollector,
	runner *usecase.DecisionRunner,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaAuditHandler,
	chClient *pkgch.Client,
	chStore *internalrepo.CHCandleStore,
	memStore *internalrepo.MemoryCandleStore,
	router *usecase.AuditRouter,
	handler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, log, collector, runner, consumer, kh, chClient, chStore, memStore, router, handler)
}
