package cooldown

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"PerpSignals/internal/domain/models"
	"PerpSignals/pkg/logger"
	"PerpSignals/pkg/store"
)

const keyPrefix = "signal:last:"

// Gate decides whether a consensus signal may fire for a symbol, based on a
// single per-symbol record. Intentionally coarse: two overlapping cycles can
// both pass before either writes. The lifecycle manager's one-open-trade-
// per-symbol rule is the backstop.
type Gate struct {
	store store.Store
	log   *logger.Logger
}

func NewGate(st store.Store, log *logger.Logger) *Gate {
	return &Gate{store: st, log: log}
}

// Decision is the gate's verdict. When blocked, HoursLeft reports the
// remaining cooldown.
type Decision struct {
	Allowed   bool
	Reason    string
	HoursLeft float64
}

// Check evaluates the ordered cooldown rules and, on allow, overwrites the
// record with the new signal.
func (g *Gate) Check(ctx context.Context, sig models.ConsensusSignal, cfg *models.OptimizationConfig, now time.Time) (Decision, error) {
	window := time.Duration(cfg.CooldownHours * float64(time.Hour))

	var rec models.LastSignalRecord
	err := g.store.Get(ctx, keyPrefix+sig.Symbol, &rec)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return g.allow(ctx, sig, window, now, "first signal for symbol")
	case err != nil:
		// store trouble degrades to allow; the backstop still holds
		g.log.Warn("cooldown record read failed", logger.String("symbol", sig.Symbol), logger.Error(err))
		return g.allow(ctx, sig, window, now, "store unavailable")
	}

	elapsed := now.Sub(rec.Timestamp)
	if elapsed >= window {
		return g.allow(ctx, sig, window, now, "cooldown elapsed")
	}
	if rec.Direction != sig.Direction {
		return g.allow(ctx, sig, window, now, "direction flip")
	}
	if rec.Entry > 0 {
		movedPct := math.Abs(sig.Entry-rec.Entry) / rec.Entry * 100
		if movedPct >= cfg.PriceOverridePct {
			return g.allow(ctx, sig, window, now, fmt.Sprintf("price moved %.2f%%", movedPct))
		}
	}

	hoursLeft := (window - elapsed).Hours()
	return Decision{
		Allowed:   false,
		Reason:    fmt.Sprintf("cooldown: %.1fh remaining", hoursLeft),
		HoursLeft: hoursLeft,
	}, nil
}

func (g *Gate) allow(ctx context.Context, sig models.ConsensusSignal, window time.Duration, now time.Time, reason string) (Decision, error) {
	rec := models.LastSignalRecord{
		Symbol:    sig.Symbol,
		Direction: sig.Direction,
		Entry:     sig.Entry,
		Timestamp: now,
	}
	ttl := window
	if ttl < 24*time.Hour {
		ttl = 24 * time.Hour
	}
	if err := g.store.Set(ctx, keyPrefix+sig.Symbol, rec, ttl); err != nil {
		g.log.Warn("cooldown record write failed", logger.String("symbol", sig.Symbol), logger.Error(err))
	}
	return Decision{Allowed: true, Reason: reason}, nil
}
