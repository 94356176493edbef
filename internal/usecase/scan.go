package usecase

import (
	"context"
	"math"
	"sync"
	"time"

	"PerpSignals/internal/consensus"
	"PerpSignals/internal/cooldown"
	"PerpSignals/internal/domain/models"
	drepo "PerpSignals/internal/domain/repository"
	"PerpSignals/internal/lifecycle"
	"PerpSignals/internal/risk"
	"PerpSignals/internal/service/market"
	"PerpSignals/internal/service/notify"
	"PerpSignals/pkg/logger"
)

const candleInterval = "15m"
const candleLimit = 100

// pendingGapPct is the entry distance from the live price beyond which a
// signal is placed as PENDING_ENTRY rather than filled at market.
const pendingGapPct = 0.005

// ScanConfig tunes one scan cycle.
type ScanConfig struct {
	Symbols     []string
	BaseRiskPct float64
	Leverage    float64
}

// ScanUseCase runs one signal hunt: gather proposals per symbol, match them
// into consensus signals, validate, pass the cooldown gate, size and open
// trades. Each run is a self-contained read-modify-write over the store.
type ScanUseCase struct {
	cfg       ScanConfig
	market    drepo.MarketData
	providers []drepo.ProposalProvider
	matcher   *consensus.Matcher
	filter    *consensus.Filter
	gate      *cooldown.Gate
	manager   *lifecycle.Manager
	state     *State
	shadow    *ShadowTracker
	events    drepo.EventPublisher
	notifier  drepo.Notifier
	metrics   drepo.Metrics
	log       *logger.Logger
}

// NewScanUseCase wires the scan pipeline.
func NewScanUseCase(
	cfg ScanConfig,
	market drepo.MarketData,
	providers []drepo.ProposalProvider,
	matcher *consensus.Matcher,
	filter *consensus.Filter,
	gate *cooldown.Gate,
	manager *lifecycle.Manager,
	state *State,
	shadow *ShadowTracker,
	events drepo.EventPublisher,
	notifier drepo.Notifier,
	metrics drepo.Metrics,
	log *logger.Logger,
) *ScanUseCase {
	return &ScanUseCase{
		cfg:       cfg,
		market:    market,
		providers: providers,
		matcher:   matcher,
		filter:    filter,
		gate:      gate,
		manager:   manager,
		state:     state,
		shadow:    shadow,
		events:    events,
		notifier:  notifier,
		metrics:   metrics,
		log:       log,
	}
}

// Run executes one scan cycle across all configured symbols.
func (uc *ScanUseCase) Run(ctx context.Context) {
	start := time.Now()
	defer func() {
		uc.metrics.RecordCycleDuration("scan", time.Since(start).Seconds())
	}()

	cfg := uc.state.LoadConfig(ctx)
	now := time.Now().UTC()

	for _, symbol := range uc.cfg.Symbols {
		select {
		case <-ctx.Done():
			return
		default:
		}
		uc.scanSymbol(ctx, symbol, cfg, now)
	}
}

func (uc *ScanUseCase) scanSymbol(ctx context.Context, symbol string, cfg *models.OptimizationConfig, now time.Time) {
	candles, err := uc.market.GetCandles(ctx, symbol, candleInterval, candleLimit)
	if err != nil {
		uc.log.Warn("scan: no market data, skipping",
			logger.String("symbol", symbol),
			logger.Error(err))
		uc.metrics.RecordError("market_data")
		return
	}
	mc := market.Analyze(candles)
	mc.Symbol = symbol

	proposals := uc.gatherProposals(ctx, symbol, mc, candles)
	if len(proposals) == 0 {
		return
	}
	uc.shadow.Record(ctx, proposals, now)

	signals := uc.matcher.Match(proposals, cfg)
	for _, sig := range signals {
		uc.handleSignal(ctx, sig, mc, cfg, now)
	}
}

// gatherProposals queries all model providers concurrently. Providers that
// fail or answer garbage contribute nothing.
func (uc *ScanUseCase) gatherProposals(ctx context.Context, symbol string, mc models.MarketContext, candles []models.Candle) []models.RawProposal {
	var (
		mu  sync.Mutex
		out []models.RawProposal
		wg  sync.WaitGroup
	)
	for _, p := range uc.providers {
		wg.Add(1)
		go func(p drepo.ProposalProvider) {
			defer wg.Done()
			props := p.Propose(ctx, symbol, mc, candles)
			if len(props) == 0 {
				return
			}
			mu.Lock()
			out = append(out, props...)
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	return out
}

func (uc *ScanUseCase) handleSignal(ctx context.Context, sig models.ConsensusSignal, mc models.MarketContext, cfg *models.OptimizationConfig, now time.Time) {
	confirm := uc.state.Confirmation(ctx, sig.Symbol)
	if err := uc.filter.Validate(sig, mc, cfg, confirm, now); err != nil {
		uc.log.Info("scan: signal rejected",
			logger.String("symbol", sig.Symbol),
			logger.String("tier", string(sig.Tier)),
			logger.Error(err))
		return
	}

	decision, err := uc.gate.Check(ctx, sig, cfg, now)
	if err != nil {
		uc.metrics.RecordError("cooldown")
	}
	if !decision.Allowed {
		uc.log.Info("scan: cooldown blocked",
			logger.String("symbol", sig.Symbol),
			logger.Float64("hours_left", decision.HoursLeft))
		return
	}

	uc.metrics.RecordSignal(string(sig.Tier), sig.Symbol)
	uc.publish(ctx, models.TradeEvent{
		Type:      models.EventSignalAccepted,
		Tier:      sig.Tier,
		Symbol:    sig.Symbol,
		Direction: sig.Direction,
		Price:     sig.Entry,
		Detail:    decision.Reason,
		Timestamp: now,
	})
	uc.notifier.Notify(ctx, notify.FormatSignal(&sig))

	uc.openTrade(ctx, sig, mc, now)
}

func (uc *ScanUseCase) openTrade(ctx context.Context, sig models.ConsensusSignal, mc models.MarketContext, now time.Time) {
	p, err := uc.state.LoadPortfolio(ctx, sig.Tier)
	if err != nil {
		uc.log.Error("scan: portfolio unavailable", logger.Error(err))
		uc.metrics.RecordError("store")
		return
	}

	riskPct := risk.AdjustedRisk(uc.cfg.BaseRiskPct, p.ClosedTrades(), p.Stats.WinStreak, mc.Regime, sig.Confidence)
	size := p.Balance * riskPct / 100 * uc.cfg.Leverage

	var t *models.Trade
	if pendingEntry(sig, mc.LastPrice) {
		t = uc.manager.OpenPending(p, sig, size, uc.cfg.Leverage, mc.Regime, now)
	} else {
		t = uc.manager.Open(p, sig, size, uc.cfg.Leverage, mc.Regime, now)
	}
	if t == nil {
		uc.log.Info("scan: symbol already has an open trade",
			logger.String("symbol", sig.Symbol),
			logger.String("tier", string(sig.Tier)))
		return
	}

	if err := uc.state.SavePortfolio(ctx, p); err != nil {
		uc.log.Error("scan: save failed", logger.Error(err))
		uc.metrics.RecordError("store")
		return
	}

	if t.Status == models.StatusPendingEntry {
		uc.log.Info("scan: pending entry placed",
			logger.String("symbol", t.Symbol),
			logger.String("tier", string(sig.Tier)),
			logger.Float64("entry", t.Entry),
			logger.Float64("last_price", mc.LastPrice))
		return
	}

	uc.metrics.RecordTradeOpened(string(sig.Tier), sig.Symbol)
	uc.publish(ctx, models.TradeEvent{
		Type:      models.EventTradeOpened,
		Tier:      sig.Tier,
		Symbol:    t.Symbol,
		Direction: t.Direction,
		Price:     t.Entry,
		Size:      t.Size,
		Timestamp: now,
	})
	uc.notifier.Notify(ctx, notify.FormatOpen(sig.Tier, t))

	uc.log.Info("scan: trade opened",
		logger.String("symbol", t.Symbol),
		logger.String("tier", string(sig.Tier)),
		logger.String("direction", string(t.Direction)),
		logger.Float64("entry", t.Entry),
		logger.Float64("size", t.Size),
		logger.Float64("risk_pct", riskPct))
}

// pendingEntry reports whether the consensus entry waits for a pullback
// touch instead of filling at market.
func pendingEntry(sig models.ConsensusSignal, last float64) bool {
	if last <= 0 {
		return false
	}
	if math.Abs(sig.Entry-last)/last < pendingGapPct {
		return false
	}
	if sig.Direction == models.Long {
		return sig.Entry < last
	}
	return sig.Entry > last
}

func (uc *ScanUseCase) publish(ctx context.Context, ev models.TradeEvent) {
	if err := uc.events.Publish(ctx, ev); err != nil {
		uc.log.Warn("scan: event publish failed", logger.Error(err))
		uc.metrics.RecordError("events")
	}
}
