package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"HeatCycle/internal/domain/repository"
	"HeatCycle/internal/handler/api"
	mid "HeatCycle/internal/middleware"
	internalrepo "HeatCycle/internal/repository"
	"HeatCycle/internal/service/hass"
	"HeatCycle/internal/service/recordcache"
	"HeatCycle/internal/services/analysis"
	"HeatCycle/internal/usecase"
	pkgcache "HeatCycle/pkg/cache"
	pkgch "HeatCycle/pkg/clickhouse"
	"HeatCycle/pkg/config"
	pkgkafka "HeatCycle/pkg/kafka"
	applogger "HeatCycle/pkg/logger"
	"HeatCycle/pkg/metrics"
	"HeatCycle/pkg/server"
	"HeatCycle/pkg/util"
)

// ProvideLogger creates the shared structured logger.
func ProvideLogger() (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{Level: "info", Format: "json", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the
// schema: the raw states table and the daily metrics long-term store.
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

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            ts DateTime64(3, 'UTC'),
            entity_id LowCardinality(String),
            state String,
            target_temp Nullable(Float64),
            hvac_action LowCardinality(String)
        ) ENGINE = MergeTree ORDER BY (entity_id, ts)`, statesTable(cfg)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            day Date,
            avg_outdoor_temp_overnight Nullable(Float64),
            min_indoor_temp_setback Nullable(Float64),
            gas_overnight Nullable(Float64),
            gas_recovery Nullable(Float64),
            setback_start_time Nullable(DateTime('UTC')),
            recovery_start_time Nullable(DateTime('UTC')),
            recovery_end_time Nullable(DateTime('UTC')),
            setback_setpoint_detected Nullable(Float64),
            daytime_target_detected Nullable(Float64),
            optimum_setpoint Nullable(Float64),
            updated_at DateTime('UTC')
        ) ENGINE = ReplacingMergeTree(updated_at) ORDER BY day`, recordsTable(cfg)),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

func statesTable(cfg *config.Config) string {
	t := cfg.ClickHouse.StatesTable
	if t == "" {
		t = "states_raw"
	}
	return cfg.ClickHouse.Database + "." + t
}

func recordsTable(cfg *config.Config) string {
	t := cfg.ClickHouse.RecordsTable
	if t == "" {
		t = "daily_metrics"
	}
	return cfg.ClickHouse.Database + "." + t
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSampleStorage creates the ClickHouse raw states repository.
func ProvideSampleStorage(chClient *pkgch.Client, cfg *config.Config) repository.SampleStorage {
	return internalrepo.NewClickHouseSampleStorage(chClient.DB(), statesTable(cfg))
}

// ProvideHistory creates the ClickHouse history reader.
func ProvideHistory(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.History {
	h := internalrepo.NewCHHistory(chClient, statesTable(cfg))
	h.SetLogger(l)
	return h
}

// ProvideRecordStore creates the ClickHouse daily metrics store.
func ProvideRecordStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.RecordStore {
	s := internalrepo.NewCHRecordStore(chClient, recordsTable(cfg))
	s.SetLogger(l)
	return s
}

// ProvideSamplePublisher creates the Kafka states publisher.
func ProvideSamplePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SamplePublisher {
	return internalrepo.NewKafkaSamplePublisher(producer, cfg.Kafka.StatesTopic)
}

// ProvideRecordPublisher creates the Kafka records publisher.
func ProvideRecordPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.RecordPublisher {
	return internalrepo.NewKafkaRecordPublisher(producer, cfg.Kafka.RecordsTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
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

// ProvideKafkaSamplesHandler registers the handler for the states topic.
func ProvideKafkaSamplesHandler(store repository.SampleStorage, m repository.Metrics, cfg *config.Config) *usecase.KafkaSamplesHandler {
	return usecase.NewKafkaSamplesHandler(cfg.Kafka.StatesTopic, store, m)
}

// ProvideStateStream creates the Home Assistant WebSocket stream.
func ProvideStateStream(cfg *config.Config) repository.StateStream {
	return hass.New(
		cfg.HomeAssistant.WebSocketURL,
		cfg.HomeAssistant.AccessToken,
		cfg.WatchedEntities(),
		cfg.HomeAssistant.ReconnectDelay,
		cfg.HomeAssistant.PingInterval,
	)
}

// ProvideSampleProcessor creates the sample processor use case.
func ProvideSampleProcessor(
	pub repository.SamplePublisher,
	store repository.SampleStorage,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.SampleProcessor {
	return usecase.NewSampleProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideSampleCollector creates the sample collector with its ingest
// pipeline and, when a backfill window is configured, a REST history
// backfill.
func ProvideSampleCollector(
	stream repository.StateStream,
	processor *usecase.SampleProcessor,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.SampleCollector {
	opts := []mid.PipelineOption{}
	if cfg.Pipeline.MinInterval > 0 {
		opts = append(opts, mid.WithMinInterval(cfg.Pipeline.MinInterval))
	}
	if cfg.Pipeline.BufferSize > 0 {
		opts = append(opts, mid.WithBufferSize(cfg.Pipeline.BufferSize))
	}
	pipe := mid.NewIngestPipeline(processor, m, opts...)
	collector := usecase.NewSampleCollector(stream, processor, m, pipe)

	if cfg.HomeAssistant.BackfillWindow > 0 {
		restURL := cfg.HomeAssistant.RESTURL
		if restURL == "" {
			restURL = hass.RESTBaseFromWebSocket(cfg.HomeAssistant.WebSocketURL)
		}
		history := hass.NewHistoryClient(restURL, cfg.HomeAssistant.AccessToken, 0)
		collector.SetBackfiller(usecase.NewBackfiller(
			history, processor, cfg.WatchedEntities(), cfg.HomeAssistant.BackfillWindow, l,
		))
	}
	return collector
}

// ProvideAnalysisConfig builds the analysis configuration: package defaults
// overridden by whatever the YAML sets.
func ProvideAnalysisConfig(cfg *config.Config) (*analysis.Config, error) {
	ac, err := analysis.NewConfig()
	if err != nil {
		return nil, err
	}
	a := cfg.Analysis
	if a.Timezone != "" {
		ac.Timezone = a.Timezone
	}
	if a.SetbackSearchBegin != "" {
		ac.SetbackSearchBegin = a.SetbackSearchBegin
	}
	if a.SetbackSearchEnd != "" {
		ac.SetbackSearchEnd = a.SetbackSearchEnd
	}
	if a.RecoverySearchBegin != "" {
		ac.RecoverySearchBegin = a.RecoverySearchBegin
	}
	if a.RecoverySearchEnd != "" {
		ac.RecoverySearchEnd = a.RecoverySearchEnd
	}
	if a.MaxRecoverySearchEnd != "" {
		ac.MaxRecoverySearchEnd = a.MaxRecoverySearchEnd
	}
	if a.SignificantDropC > 0 {
		ac.SignificantDropC = a.SignificantDropC
	}
	if a.SignificantRiseC > 0 {
		ac.SignificantRiseC = a.SignificantRiseC
	}
	if a.TypicalSetbackMin > 0 {
		ac.TypicalSetbackMin = a.TypicalSetbackMin
	}
	if a.TypicalSetbackMax > 0 {
		ac.TypicalSetbackMax = a.TypicalSetbackMax
	}
	if a.TypicalDaytimeMin > 0 {
		ac.TypicalDaytimeMin = a.TypicalDaytimeMin
	}
	if a.RecoveryToleranceC > 0 {
		ac.RecoveryToleranceC = a.RecoveryToleranceC
	}
	if a.MinIdleForRecovery > 0 {
		ac.MinIdleForRecovery = a.MinIdleForRecovery
	}
	if a.HistoryDays > 0 {
		ac.HistoryDays = a.HistoryDays
	}
	if a.VeryColdMaxC != 0 {
		ac.VeryColdMaxC = a.VeryColdMaxC
	}
	if a.ColdMaxC != 0 {
		ac.ColdMaxC = a.ColdMaxC
	}
	if a.MinDataPoints > 0 {
		ac.MinDataPoints = a.MinDataPoints
	}
	if err := ac.Validate(); err != nil {
		return nil, fmt.Errorf("analysis config: %w", err)
	}
	return ac, nil
}

// ProvideWindowResolver creates the analysis window resolver.
func ProvideWindowResolver(ac *analysis.Config) (*analysis.WindowResolver, error) {
	return analysis.NewWindowResolver(ac)
}

// ProvideEntities maps the configured entity ids.
func ProvideEntities(cfg *config.Config) usecase.Entities {
	return usecase.Entities{
		IndoorTemp:  cfg.Entities.IndoorTemp,
		OutdoorTemp: cfg.Entities.OutdoorTemp,
		Climate:     cfg.Entities.Climate,
		GasMeter:    cfg.Entities.GasMeter,
	}
}

// ProvideBoundaryDetector creates the cycle boundary detector.
func ProvideBoundaryDetector(ac *analysis.Config, hist repository.History, cfg *config.Config, l *applogger.Logger) *analysis.BoundaryDetector {
	d := analysis.NewBoundaryDetector(ac, hist, cfg.Entities.Climate, cfg.Entities.IndoorTemp)
	d.SetLogger(l)
	return d
}

// ProvideConsumptionIntegrator creates the gas consumption integrator.
func ProvideConsumptionIntegrator(hist repository.History, l *applogger.Logger) *analysis.ConsumptionIntegrator {
	ci := analysis.NewConsumptionIntegrator(hist)
	ci.SetLogger(l)
	return ci
}

// ProvideDailyMetricsUseCase creates the per-day analysis use case.
func ProvideDailyMetricsUseCase(
	resolver *analysis.WindowResolver,
	detector *analysis.BoundaryDetector,
	gas *analysis.ConsumptionIntegrator,
	hist repository.History,
	entities usecase.Entities,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.DailyMetricsUseCase {
	return usecase.NewDailyMetricsUseCase(resolver, detector, gas, hist, entities, m, l)
}

// ProvideOptimumUseCase creates the recommendation use case.
func ProvideOptimumUseCase(store repository.RecordStore, ac *analysis.Config, l *applogger.Logger) *usecase.OptimumUseCase {
	return usecase.NewOptimumUseCase(store, ac, l)
}

// ProvideRecordCache creates the record cache: in-memory by default, layered
// over Redis when enabled.
func ProvideRecordCache(cfg *config.Config) (*recordcache.RecordCache, error) {
	if !cfg.Cache.Redis.Enabled {
		return recordcache.NewRecordCache(pkgcache.NewMemoryCache(), cfg.Cache.TTL), nil
	}
	host, port := splitHostPort(cfg.Cache.Redis.Addr, 6379)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		pkgcache.WithRedisPrefix("heatcycle"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return recordcache.NewRecordCache(pkgcache.NewLayeredCache(rc), cfg.Cache.TTL), nil
}

func splitHostPort(addr string, defaultPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defaultPort
	}
	return host, port
}

// ProvideAnalyzer creates the full daily pipeline use case.
func ProvideAnalyzer(
	daily *usecase.DailyMetricsUseCase,
	optimum *usecase.OptimumUseCase,
	store repository.RecordStore,
	publisher repository.RecordPublisher,
	cache *recordcache.RecordCache,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AnalyzerUseCase {
	return usecase.NewAnalyzerUseCase(daily, optimum, store, publisher, cache, m, l)
}

// ProvideScheduler creates the daily scheduler from the configured local
// run time.
func ProvideScheduler(analyzer *usecase.AnalyzerUseCase, resolver *analysis.WindowResolver, cfg *config.Config, l *applogger.Logger) (*usecase.DailyScheduler, error) {
	runAtRaw := cfg.Schedule.RunAt
	if runAtRaw == "" {
		runAtRaw = "11:00:00"
	}
	runAt, err := util.ParseTimeOfDay(runAtRaw)
	if err != nil {
		return nil, fmt.Errorf("schedule.run_at: %w", err)
	}
	return usecase.NewDailyScheduler(analyzer, runAt, resolver.Location(), l), nil
}

// ProvideRecordsHandler creates the Echo API handler.
func ProvideRecordsHandler(
	l *applogger.Logger,
	store repository.RecordStore,
	analyzer *usecase.AnalyzerUseCase,
	optimum *usecase.OptimumUseCase,
	cache *recordcache.RecordCache,
	resolver *analysis.WindowResolver,
) *api.RecordsEchoHandler {
	return api.NewRecordsEchoHandler(l, store, analyzer, optimum, cache, resolver.Location())
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.SampleCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSamplesHandler,
	scheduler *usecase.DailyScheduler,
	chClient *pkgch.Client,
	handler *api.RecordsEchoHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, scheduler, chClient)
	app.SetHTTPHandler(handler)
	if collector != nil {
		app.SampleProc = collector.Processor()
	}
	return app
}
