package usecase

import (
	"context"
	"fmt"
	"time"

	"PerpSignals/internal/domain/models"
	"PerpSignals/internal/optimizer"
	"PerpSignals/pkg/logger"
	"PerpSignals/pkg/store"
)

const (
	shadowResolveAfter = 6 * time.Hour
	shadowExpiry       = 24 * time.Hour
)

// ShadowTracker scores every model proposal regardless of whether it traded.
// After six hours a proposal is marked won or lost by price direction alone;
// the per-model scorecards feed the optimizer's model weights.
type ShadowTracker struct {
	store store.Store
	log   *logger.Logger
}

// NewShadowTracker creates the tracker.
func NewShadowTracker(st store.Store, log *logger.Logger) *ShadowTracker {
	return &ShadowTracker{store: st, log: log}
}

// Record stores one shadow signal per proposal. Duplicate IDs within a cycle
// are harmless overwrites.
func (t *ShadowTracker) Record(ctx context.Context, proposals []models.RawProposal, now time.Time) {
	for _, p := range proposals {
		sig := models.ShadowSignal{
			ID:        fmt.Sprintf("%s-%s-%d", p.Source, p.Symbol, now.UnixNano()),
			Source:    p.Source,
			Symbol:    p.Symbol,
			Direction: p.Direction,
			Entry:     p.Entry,
			CreatedAt: now,
		}
		if err := t.store.Set(ctx, keyShadowPrefix+sig.ID, sig, shadowExpiry); err != nil {
			t.log.Warn("shadow: record failed",
				logger.String("source", p.Source),
				logger.Error(err))
		}
	}
}

// Resolve settles shadow signals older than the resolution window against
// current prices and folds the outcomes into the scorecards.
func (t *ShadowTracker) Resolve(ctx context.Context, prices map[string]float64, now time.Time) {
	keys, err := t.store.Scan(ctx, keyShadowPrefix)
	if err != nil {
		t.log.Warn("shadow: scan failed", logger.Error(err))
		return
	}

	scores := t.Scores(ctx)
	changed := false
	for _, key := range keys {
		var sig models.ShadowSignal
		if err := t.store.Get(ctx, key, &sig); err != nil {
			continue
		}
		if sig.Resolved || now.Sub(sig.CreatedAt) < shadowResolveAfter {
			continue
		}
		price, ok := prices[sig.Symbol]
		if !ok || price <= 0 {
			continue
		}

		won := price > sig.Entry
		if sig.Direction == models.Short {
			won = price < sig.Entry
		}

		rec := scores[sig.Source]
		if won {
			rec.Wins++
		} else {
			rec.Losses++
		}
		scores[sig.Source] = rec
		changed = true

		_ = t.store.Del(ctx, key)
	}

	if changed {
		if err := t.store.Set(ctx, keyShadowScores, scores, 0); err != nil {
			t.log.Warn("shadow: save scores failed", logger.Error(err))
		}
	}
}

// Scores returns the per-model scorecards, empty on a cold store.
func (t *ShadowTracker) Scores(ctx context.Context) map[string]optimizer.SourceRecord {
	scores := make(map[string]optimizer.SourceRecord)
	if err := t.store.Get(ctx, keyShadowScores, &scores); err != nil {
		return make(map[string]optimizer.SourceRecord)
	}
	return scores
}
