package cooldown

import (
	"context"
	"testing"
	"time"

	"PerpSignals/internal/domain/models"
	"PerpSignals/pkg/logger"
	"PerpSignals/pkg/store"
)

func newGate() (*Gate, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return NewGate(st, logger.Nop()), st
}

func sig(dir models.Direction, entry float64) models.ConsensusSignal {
	return models.ConsensusSignal{Symbol: "BTCUSDT", Direction: dir, Entry: entry}
}

func TestGateAllowsFirstSignal(t *testing.T) {
	g, st := newGate()
	ctx := context.Background()
	now := time.Now()

	d, err := g.Check(ctx, sig(models.Long, 100), models.DefaultOptimizationConfig(), now)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("first signal blocked: %s", d.Reason)
	}

	var rec models.LastSignalRecord
	if err := st.Get(ctx, "signal:last:BTCUSDT", &rec); err != nil {
		t.Fatalf("record not written: %v", err)
	}
	if rec.Direction != models.Long || rec.Entry != 100 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestGateBlocksWithinWindow(t *testing.T) {
	g, _ := newGate()
	ctx := context.Background()
	cfg := models.DefaultOptimizationConfig() // cooldownHours=4, override 2%
	now := time.Now()

	if d, _ := g.Check(ctx, sig(models.Long, 100), cfg, now.Add(-3*time.Hour)); !d.Allowed {
		t.Fatal("seed signal blocked")
	}

	// 3h later, same direction, <2% move: blocked with ~1h remaining
	d, err := g.Check(ctx, sig(models.Long, 101), cfg, now)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected block inside cooldown window")
	}
	if d.HoursLeft < 0.9 || d.HoursLeft > 1.1 {
		t.Fatalf("expected ~1h remaining, got %.2f", d.HoursLeft)
	}
}

func TestGateAllowsDirectionFlip(t *testing.T) {
	g, _ := newGate()
	ctx := context.Background()
	cfg := models.DefaultOptimizationConfig()
	now := time.Now()

	if d, _ := g.Check(ctx, sig(models.Long, 100), cfg, now.Add(-time.Hour)); !d.Allowed {
		t.Fatal("seed signal blocked")
	}
	d, _ := g.Check(ctx, sig(models.Short, 100), cfg, now)
	if !d.Allowed {
		t.Fatalf("direction flip blocked: %s", d.Reason)
	}
}

func TestGateAllowsOnPriceOverride(t *testing.T) {
	g, _ := newGate()
	ctx := context.Background()
	cfg := models.DefaultOptimizationConfig()
	now := time.Now()

	if d, _ := g.Check(ctx, sig(models.Long, 100), cfg, now.Add(-time.Hour)); !d.Allowed {
		t.Fatal("seed signal blocked")
	}
	// 3% move beats the 2% override threshold
	d, _ := g.Check(ctx, sig(models.Long, 103), cfg, now)
	if !d.Allowed {
		t.Fatalf("price override blocked: %s", d.Reason)
	}
}

func TestGateAllowsAfterWindow(t *testing.T) {
	g, _ := newGate()
	ctx := context.Background()
	cfg := models.DefaultOptimizationConfig()
	now := time.Now()

	if d, _ := g.Check(ctx, sig(models.Long, 100), cfg, now.Add(-5*time.Hour)); !d.Allowed {
		t.Fatal("seed signal blocked")
	}
	d, _ := g.Check(ctx, sig(models.Long, 100.1), cfg, now)
	if !d.Allowed {
		t.Fatalf("elapsed cooldown still blocked: %s", d.Reason)
	}
}
