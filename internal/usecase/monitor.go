package usecase

import (
	"context"
	"time"

	"PerpSignals/internal/domain/models"
	drepo "PerpSignals/internal/domain/repository"
	"PerpSignals/internal/lifecycle"
	"PerpSignals/internal/service/notify"
	"PerpSignals/pkg/logger"
)

// MonitorUseCase advances open trades against fresh prices: trailing stops,
// stop hits, partial take-profits and pending expiry, for both tiers. Closed
// trades are journaled and announced.
type MonitorUseCase struct {
	symbols  []string
	market   drepo.MarketData
	manager  *lifecycle.Manager
	state    *State
	shadow   *ShadowTracker
	events   drepo.EventPublisher
	notifier drepo.Notifier
	journal  drepo.TradeJournal
	metrics  drepo.Metrics
	log      *logger.Logger
}

// NewMonitorUseCase wires the monitor pipeline.
func NewMonitorUseCase(
	symbols []string,
	market drepo.MarketData,
	manager *lifecycle.Manager,
	state *State,
	shadow *ShadowTracker,
	events drepo.EventPublisher,
	notifier drepo.Notifier,
	journal drepo.TradeJournal,
	metrics drepo.Metrics,
	log *logger.Logger,
) *MonitorUseCase {
	return &MonitorUseCase{
		symbols:  symbols,
		market:   market,
		manager:  manager,
		state:    state,
		shadow:   shadow,
		events:   events,
		notifier: notifier,
		journal:  journal,
		metrics:  metrics,
		log:      log,
	}
}

// Run executes one monitor cycle.
func (uc *MonitorUseCase) Run(ctx context.Context) {
	start := time.Now()
	defer func() {
		uc.metrics.RecordCycleDuration("monitor", time.Since(start).Seconds())
	}()

	prices, err := uc.market.GetPrices(ctx, uc.symbols)
	if err != nil {
		uc.log.Warn("monitor: no prices, skipping cycle", logger.Error(err))
		uc.metrics.RecordError("market_data")
		return
	}
	now := time.Now().UTC()

	for _, tier := range []models.Tier{models.TierGold, models.TierSilver} {
		uc.tickTier(ctx, tier, prices, now)
	}

	uc.shadow.Resolve(ctx, prices, now)
}

func (uc *MonitorUseCase) tickTier(ctx context.Context, tier models.Tier, prices map[string]float64, now time.Time) {
	p, err := uc.state.LoadPortfolio(ctx, tier)
	if err != nil {
		uc.log.Error("monitor: portfolio unavailable",
			logger.String("tier", string(tier)),
			logger.Error(err))
		uc.metrics.RecordError("store")
		return
	}

	events := uc.manager.Tick(p, prices, now)
	if len(events) == 0 {
		return
	}

	if err := uc.state.SavePortfolio(ctx, p); err != nil {
		uc.log.Error("monitor: save failed",
			logger.String("tier", string(tier)),
			logger.Error(err))
		uc.metrics.RecordError("store")
		return
	}

	uc.metrics.RecordBalance(string(tier), p.Balance)
	for _, ev := range events {
		uc.emit(ctx, tier, p, ev)
	}
}

func (uc *MonitorUseCase) emit(ctx context.Context, tier models.Tier, p *models.Portfolio, ev models.TradeEvent) {
	if err := uc.events.Publish(ctx, ev); err != nil {
		uc.log.Warn("monitor: event publish failed", logger.Error(err))
		uc.metrics.RecordError("events")
	}

	t := findTrade(p, ev.Symbol)
	switch ev.Type {
	case models.EventTradeOpened:
		// pending entry touched and went live
		if t != nil {
			uc.metrics.RecordTradeOpened(string(tier), ev.Symbol)
			uc.notifier.Notify(ctx, notify.FormatOpen(tier, t))
		}
	case models.EventTradeClosed, models.EventTradeExpired:
		if t != nil {
			uc.metrics.RecordTradeClosed(string(tier), string(t.Result), t.Pnl)
			uc.notifier.Notify(ctx, notify.FormatClose(tier, t, ev))
			if err := uc.journal.Append(ctx, tier, t); err != nil {
				uc.log.Warn("monitor: journal append failed", logger.Error(err))
				uc.metrics.RecordError("journal")
			}
		}
	case models.EventPartialClose:
		if t != nil {
			uc.notifier.Notify(ctx, notify.FormatClose(tier, t, ev))
		}
	}

	uc.log.Info("monitor: lifecycle event",
		logger.String("type", ev.Type),
		logger.String("tier", string(tier)),
		logger.String("symbol", ev.Symbol),
		logger.Float64("price", ev.Price),
		logger.Float64("pnl", ev.Pnl))
}

// findTrade returns the most recently opened trade for a symbol, closed or
// not. Events reference trades by symbol inside one tick.
func findTrade(p *models.Portfolio, symbol string) *models.Trade {
	for i := len(p.Trades) - 1; i >= 0; i-- {
		if p.Trades[i].Symbol == symbol {
			return p.Trades[i]
		}
	}
	return nil
}
