package usecase

import (
	"context"
	"time"

	"PerpSignals/internal/domain/models"
	drepo "PerpSignals/internal/domain/repository"
	"PerpSignals/internal/optimizer"
	"PerpSignals/pkg/logger"
)

// OptimizeUseCase runs the nightly parameter review: closed trades from both
// portfolios plus shadow scorecards in, a bounded-step config revision out.
type OptimizeUseCase struct {
	opt      *optimizer.Optimizer
	state    *State
	shadow   *ShadowTracker
	notifier drepo.Notifier
	metrics  drepo.Metrics
	log      *logger.Logger
}

// NewOptimizeUseCase wires the optimize pipeline.
func NewOptimizeUseCase(
	opt *optimizer.Optimizer,
	state *State,
	shadow *ShadowTracker,
	notifier drepo.Notifier,
	metrics drepo.Metrics,
	log *logger.Logger,
) *OptimizeUseCase {
	return &OptimizeUseCase{
		opt:      opt,
		state:    state,
		shadow:   shadow,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
	}
}

// Run executes one optimization cycle.
func (uc *OptimizeUseCase) Run(ctx context.Context) {
	start := time.Now()
	defer func() {
		uc.metrics.RecordCycleDuration("optimize", time.Since(start).Seconds())
	}()

	var trades []*models.Trade
	for _, tier := range []models.Tier{models.TierGold, models.TierSilver} {
		p, err := uc.state.LoadPortfolio(ctx, tier)
		if err != nil {
			uc.log.Error("optimize: portfolio unavailable",
				logger.String("tier", string(tier)),
				logger.Error(err))
			uc.metrics.RecordError("store")
			return
		}
		trades = append(trades, p.Trades...)
	}

	cur := uc.state.LoadConfig(ctx)
	next := uc.opt.Run(cur, trades, uc.shadow.Scores(ctx), time.Now().UTC())

	if err := uc.state.SaveConfig(ctx, next); err != nil {
		uc.log.Error("optimize: save failed", logger.Error(err))
		uc.metrics.RecordError("store")
		return
	}

	uc.log.Info("optimize: cycle complete",
		logger.Int("trades_analyzed", next.TradesAnalyzed),
		logger.Int("version", next.Version))
	if next.LastReport != "" {
		uc.notifier.Notify(ctx, next.LastReport)
	}
}
