package risk

import (
	"testing"

	"PerpSignals/internal/domain/models"
)

func closedTrades(wins, losses int, winPnl, lossPnl float64) []*models.Trade {
	var out []*models.Trade
	for i := 0; i < wins; i++ {
		out = append(out, &models.Trade{Status: models.StatusClosed, Result: models.ResultWin, Pnl: winPnl})
	}
	for i := 0; i < losses; i++ {
		out = append(out, &models.Trade{Status: models.StatusClosed, Result: models.ResultLoss, Pnl: lossPnl})
	}
	return out
}

func TestDeterministic(t *testing.T) {
	closed := closedTrades(15, 10, 30, -20)
	a := AdjustedRisk(1.0, closed, 2, models.RegimeTrending, 80)
	b := AdjustedRisk(1.0, closed, 2, models.RegimeTrending, 80)
	if a != b {
		t.Fatalf("not deterministic: %v vs %v", a, b)
	}
}

func TestKellyFallbackBelowSampleFloor(t *testing.T) {
	closed := closedTrades(3, 2, 30, -20) // only 5 samples
	got := AdjustedRisk(1.0, closed, 0, "", 70)
	// base untouched, neutral multipliers
	if got != 1.0 {
		t.Fatalf("expected baseRisk fallback 1.0, got %v", got)
	}
}

func TestKellyNegativeEdgeHalvesBase(t *testing.T) {
	// 25% win rate with symmetric payoff is a clearly negative edge
	closed := closedTrades(5, 15, 20, -20)
	got := AdjustedRisk(1.0, closed, 0, "", 70)
	if got != 0.5 {
		t.Fatalf("expected half base on negative edge, got %v", got)
	}
}

func TestHardCeiling(t *testing.T) {
	closed := closedTrades(30, 2, 50, -10) // huge edge
	got := AdjustedRisk(4.0, closed, 10, models.RegimeTrending, 95)
	if got > hardCeilingPct {
		t.Fatalf("risk %v exceeds hard ceiling %v", got, hardCeilingPct)
	}
}

func TestStreakCap(t *testing.T) {
	if streakMultiplier(3) != 1.3 {
		t.Fatalf("streak 3 expected 1.3, got %v", streakMultiplier(3))
	}
	if streakMultiplier(50) != maxStreakBonus {
		t.Fatalf("streak must cap at %v, got %v", maxStreakBonus, streakMultiplier(50))
	}
	if streakMultiplier(0) != 1.0 || streakMultiplier(-2) != 1.0 {
		t.Fatal("non-positive streak must be neutral")
	}
}

func TestRegimeAndConfidenceMultipliers(t *testing.T) {
	if regimeMultiplier(models.RegimeVolatile) >= regimeMultiplier(models.RegimeTrending) {
		t.Fatal("volatile regime must size smaller than trending")
	}
	if confidenceMultiplier(90) <= confidenceMultiplier(60) {
		t.Fatal("higher confidence must size larger")
	}
}

func TestNoSideEffects(t *testing.T) {
	closed := closedTrades(15, 10, 30, -20)
	pnl, status := closed[0].Pnl, closed[0].Status
	_ = AdjustedRisk(1.0, closed, 2, models.RegimeTrending, 80)
	if closed[0].Pnl != pnl || closed[0].Status != status {
		t.Fatal("input trade mutated")
	}
}
