package di

import (
	"fmt"
	"time"

	"PerpSignals/internal/consensus"
	"PerpSignals/internal/cooldown"
	drepo "PerpSignals/internal/domain/repository"
	"PerpSignals/internal/handler/api"
	"PerpSignals/internal/lifecycle"
	"PerpSignals/internal/optimizer"
	internalrepo "PerpSignals/internal/repository"
	"PerpSignals/internal/service/ai"
	"PerpSignals/internal/service/market"
	"PerpSignals/internal/service/notify"
	"PerpSignals/internal/usecase"
	"PerpSignals/pkg/cache"
	pkgch "PerpSignals/pkg/clickhouse"
	"PerpSignals/pkg/config"
	xhttp "PerpSignals/pkg/http"
	pkgkafka "PerpSignals/pkg/kafka"
	"PerpSignals/pkg/logger"
	"PerpSignals/pkg/metrics"
	"PerpSignals/pkg/server"
	"PerpSignals/pkg/store"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideStore creates the Redis document store.
func ProvideStore(cfg *config.Config) (store.Store, error) {
	st, err := store.NewRedisStore(store.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("redis store: %w", err)
	}
	return st, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideMarketData creates the REST price/candle client plus warm cache.
func ProvideMarketData(cfg *config.Config, warm *market.PriceCache, log *logger.Logger) drepo.MarketData {
	providers := make([]market.Provider, 0, len(cfg.Market.Providers))
	for _, p := range cfg.Market.Providers {
		providers = append(providers, market.Provider{Name: p.Name, BaseURL: p.BaseURL})
	}
	rest := market.New(providers, cfg.Market.Timeout, log)
	return market.WithWarmCache(rest, warm)
}

// ProvideMarketStream creates the websocket ticker, or nil when disabled.
func ProvideMarketStream(cfg *config.Config, log *logger.Logger) drepo.MarketStream {
	if !cfg.Market.StreamEnabled || cfg.Market.StreamURL == "" {
		return nil
	}
	return market.NewStream(cfg.Market.StreamURL, cfg.Market.Symbols, cfg.Market.PingInterval, log)
}

// ProvideCache creates the in-process cache behind the warm price cache and
// cycle locks.
func ProvideCache() cache.Service {
	return cache.NewMemoryCache(cache.WithMaxSize(4096))
}

// ProvidePriceCache creates the websocket tick cache.
func ProvidePriceCache(c cache.Service) *market.PriceCache {
	return market.NewPriceCache(c, 30*time.Second)
}

// ProvideProposalProviders creates one client per configured model.
func ProvideProposalProviders(cfg *config.Config, log *logger.Logger) []drepo.ProposalProvider {
	out := make([]drepo.ProposalProvider, 0, len(cfg.AI.Models))
	for _, m := range cfg.AI.Models {
		out = append(out, ai.NewProvider(m.Name, m.BaseURL, m.APIKey, m.Model, cfg.AI.Timeout, log))
	}
	return out
}

// ProvideNotifier creates the Telegram notifier, or a no-op when disabled.
func ProvideNotifier(cfg *config.Config, log *logger.Logger) drepo.Notifier {
	if !cfg.Telegram.Enabled || cfg.Telegram.Token == "" {
		return notify.Nop{}
	}
	return notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
}

// ProvideEventPublisher creates the Kafka event publisher, or a no-op when
// kafka is disabled.
func ProvideEventPublisher(cfg *config.Config) (drepo.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewEventPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideTradeJournal creates the ClickHouse journal, or a no-op when
// clickhouse is disabled.
func ProvideTradeJournal(cfg *config.Config) (drepo.TradeJournal, error) {
	if !cfg.ClickHouse.Enabled {
		return internalrepo.NopJournal{}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithDialTimeout(cfg.ClickHouse.DialTimeout),
		pkgch.WithAsyncInsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return internalrepo.NewTradeJournal(client), nil
}

// ProvideState creates the store-backed state accessor.
func ProvideState(st store.Store, cfg *config.Config) *usecase.State {
	return usecase.NewState(st, cfg.Engine.InitialBalance)
}

// ProvideLifecycleManager creates the trade lifecycle manager.
func ProvideLifecycleManager(cfg *config.Config, log *logger.Logger) *lifecycle.Manager {
	return lifecycle.NewManager(lifecycle.Config{
		MaxTrades:    cfg.Engine.MaxTrades,
		EquityPoints: cfg.Engine.EquityPoints,
	}, log)
}

// ProvideScanUseCase wires the signal hunt.
func ProvideScanUseCase(
	cfg *config.Config,
	md drepo.MarketData,
	providers []drepo.ProposalProvider,
	manager *lifecycle.Manager,
	state *usecase.State,
	shadow *usecase.ShadowTracker,
	st store.Store,
	events drepo.EventPublisher,
	notifier drepo.Notifier,
	m drepo.Metrics,
	log *logger.Logger,
) *usecase.ScanUseCase {
	return usecase.NewScanUseCase(
		usecase.ScanConfig{
			Symbols:     cfg.Market.Symbols,
			BaseRiskPct: cfg.Engine.BaseRiskPct,
			Leverage:    cfg.Engine.Leverage,
		},
		md,
		providers,
		consensus.NewMatcher(log),
		consensus.NewFilter(cfg.Engine.RequireConfirm),
		cooldown.NewGate(st, log),
		manager,
		state,
		shadow,
		events,
		notifier,
		m,
		log,
	)
}

// ProvideShadowTracker creates the model scorecard tracker.
func ProvideShadowTracker(st store.Store, log *logger.Logger) *usecase.ShadowTracker {
	return usecase.NewShadowTracker(st, log)
}

// ProvideMonitorUseCase wires trade monitoring.
func ProvideMonitorUseCase(
	cfg *config.Config,
	md drepo.MarketData,
	manager *lifecycle.Manager,
	state *usecase.State,
	shadow *usecase.ShadowTracker,
	events drepo.EventPublisher,
	notifier drepo.Notifier,
	journal drepo.TradeJournal,
	m drepo.Metrics,
	log *logger.Logger,
) *usecase.MonitorUseCase {
	return usecase.NewMonitorUseCase(cfg.Market.Symbols, md, manager, state, shadow, events, notifier, journal, m, log)
}

// ProvideOptimizeUseCase wires the parameter review.
func ProvideOptimizeUseCase(
	state *usecase.State,
	shadow *usecase.ShadowTracker,
	notifier drepo.Notifier,
	m drepo.Metrics,
	log *logger.Logger,
) *usecase.OptimizeUseCase {
	return usecase.NewOptimizeUseCase(optimizer.New(log), state, shadow, notifier, m, log)
}

// ProvideHTTPHandler wires the API surface.
func ProvideHTTPHandler(cfg *config.Config, state *usecase.State, stream drepo.MarketStream, log *logger.Logger) xhttp.Handler {
	status := usecase.NewStatusUseCase(state, stream)
	webhook := api.NewWebhookHandler(log, state, cfg.Webhook.Secret, cfg.Webhook.ConfirmTTL)
	return api.NewEngineHandler(log, status, webhook)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	scan *usecase.ScanUseCase,
	monitor *usecase.MonitorUseCase,
	optimize *usecase.OptimizeUseCase,
	stream drepo.MarketStream,
	warm *market.PriceCache,
	locks cache.Service,
	journal drepo.TradeJournal,
	events drepo.EventPublisher,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, log, scan, monitor, optimize, stream, warm, locks, journal, events, handler)
}
