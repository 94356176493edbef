package optimizer

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"PerpSignals/internal/domain/models"
	"PerpSignals/pkg/logger"
)

func closedTrade(symbol string, result models.TradeResult, pnl, confidence float64, sources []string, closedAt time.Time) *models.Trade {
	return &models.Trade{
		Symbol: symbol, Direction: models.Long,
		Entry: 100, StopLoss: 98, OriginalStopLoss: 98, TakeProfit: 106,
		Confidence: confidence, Status: models.StatusClosed,
		Result: result, Pnl: pnl, AISources: sources,
		Regime: models.RegimeTrending, ClosedAt: closedAt,
	}
}

func history(n int) []*models.Trade {
	base := time.Now().Add(-24 * time.Hour)
	var out []*models.Trade
	for i := 0; i < n; i++ {
		result := models.ResultWin
		pnl := 20.0
		if i%2 == 0 {
			result = models.ResultLoss
			pnl = -15.0
		}
		out = append(out, closedTrade("BTCUSDT", result, pnl, 70, []string{"gpt", "claude"}, base.Add(time.Duration(i)*time.Hour)))
	}
	return out
}

func TestWaitingBelowSampleFloor(t *testing.T) {
	o := New(logger.Nop())
	cur := models.DefaultOptimizationConfig()

	next := o.Run(cur, history(4), nil, time.Now())
	if next.TradesAnalyzed != 4 {
		t.Fatalf("expected 4 analyzed, got %d", next.TradesAnalyzed)
	}
	if !strings.Contains(next.LastReport, "waiting") {
		t.Fatalf("expected waiting report, got %q", next.LastReport)
	}
	if next.MinConfidence != cur.MinConfidence {
		t.Fatal("thresholds must not move below the sample floor")
	}
}

func TestNoHistoryNeverErrors(t *testing.T) {
	o := New(logger.Nop())
	next := o.Run(models.DefaultOptimizationConfig(), nil, nil, time.Now())
	if next.TradesAnalyzed != 0 || next.LastReport == "" {
		t.Fatalf("expected waiting report on empty history, got %+v", next)
	}
}

// The worked scenario: 12 closed trades, model A on 3 of them with 1 win and
// 2 losses. Weight = round(0.33*2, 2) = 0.66, inside [0.3, 2.0].
func TestModelWeightFromWinRate(t *testing.T) {
	o := New(logger.Nop())
	base := time.Now().Add(-24 * time.Hour)

	var trades []*models.Trade
	trades = append(trades,
		closedTrade("BTCUSDT", models.ResultWin, 20, 70, []string{"A"}, base),
		closedTrade("ETHUSDT", models.ResultLoss, -10, 70, []string{"A"}, base.Add(time.Hour)),
		closedTrade("SOLUSDT", models.ResultLoss, -10, 70, []string{"A"}, base.Add(2*time.Hour)),
	)
	for i := 0; i < 9; i++ {
		trades = append(trades, closedTrade("BTCUSDT", models.ResultWin, 20, 70, []string{"B"}, base.Add(time.Duration(3+i)*time.Hour)))
	}

	next := o.Run(models.DefaultOptimizationConfig(), trades, nil, time.Now())
	w := next.ModelWeights["A"]
	if math.Abs(w-0.66) > 0.01 {
		t.Fatalf("expected weight ~0.66 for model A, got %v", w)
	}
	if w < weightBounds.Min || w > weightBounds.Max {
		t.Fatalf("weight %v outside hard bounds", w)
	}
	// model B is perfect; weight caps at the hard bound
	if next.ModelWeights["B"] != weightBounds.Max {
		t.Fatalf("expected model B capped at %v, got %v", weightBounds.Max, next.ModelWeights["B"])
	}
}

func TestBoundedAdjustProperties(t *testing.T) {
	cases := []struct{ old, optimal float64 }{
		{65, 85}, {65, 10}, {65, 65}, {50, 1000}, {85, -5},
	}
	for _, c := range cases {
		got := BoundedAdjust(c.old, c.optimal, 0.2, confidenceBounds)
		if got < confidenceBounds.Min || got > confidenceBounds.Max {
			t.Fatalf("adjust(%v->%v) = %v escaped bounds", c.old, c.optimal, got)
		}
		if step := math.Abs(got - c.old); step > c.old*0.2+1e-9 {
			t.Fatalf("adjust(%v->%v) moved %v, more than 20%% of old", c.old, c.optimal, step)
		}
	}
}

func TestSymbolBlacklist(t *testing.T) {
	o := New(logger.Nop())
	base := time.Now().Add(-48 * time.Hour)

	var trades []*models.Trade
	// DOGE: 8 trades, 1 win => 12.5% < 30%
	for i := 0; i < 8; i++ {
		result := models.ResultLoss
		pnl := -10.0
		if i == 0 {
			result = models.ResultWin
			pnl = 10
		}
		trades = append(trades, closedTrade("DOGEUSDT", result, pnl, 70, []string{"gpt"}, base.Add(time.Duration(i)*time.Hour)))
	}
	// healthy symbol to pad the sample
	for i := 0; i < 6; i++ {
		trades = append(trades, closedTrade("BTCUSDT", models.ResultWin, 20, 70, []string{"gpt"}, base.Add(time.Duration(10+i)*time.Hour)))
	}

	next := o.Run(models.DefaultOptimizationConfig(), trades, nil, time.Now())
	if !next.SymbolBlacklisted("DOGEUSDT") {
		t.Fatalf("DOGEUSDT should be blacklisted, got %v", next.BlacklistedSymbols)
	}
	if next.SymbolBlacklisted("BTCUSDT") {
		t.Fatal("BTCUSDT wrongly blacklisted")
	}
}

func TestVolatileRegimeAlwaysBlocked(t *testing.T) {
	o := New(logger.Nop())
	next := o.Run(models.DefaultOptimizationConfig(), history(12), nil, time.Now())
	if !next.RegimeBlocked(models.RegimeVolatile) {
		t.Fatal("VOLATILE must stay blocked by policy")
	}
}

func TestConsecutiveLossPause(t *testing.T) {
	o := New(logger.Nop())
	base := time.Now().Add(-24 * time.Hour)
	now := time.Now()

	var trades []*models.Trade
	for i := 0; i < 6; i++ {
		trades = append(trades, closedTrade("BTCUSDT", models.ResultWin, 20, 70, []string{"gpt"}, base.Add(time.Duration(i)*time.Hour)))
	}
	for i := 0; i < 5; i++ {
		trades = append(trades, closedTrade("ETHUSDT", models.ResultLoss, -10, 70, []string{"gpt"}, base.Add(time.Duration(10+i)*time.Hour)))
	}

	next := o.Run(models.DefaultOptimizationConfig(), trades, nil, now)
	if !next.Pause.Active(now) {
		t.Fatal("expected pause after 5 consecutive losses")
	}

	// expired pause clears on the next run
	later := next.Pause.Until.Add(time.Minute)
	cleared := o.Run(next, trades[:6], nil, later)
	if cleared.Pause.Active(later) {
		t.Fatal("expired pause did not clear")
	}
}

func TestAuditLogBounded(t *testing.T) {
	o := New(logger.Nop())
	cfg := models.DefaultOptimizationConfig()
	trades := history(12)
	now := time.Now()

	for i := 0; i < auditLogLimit+10; i++ {
		cfg = o.Run(cfg, trades, nil, now.Add(time.Duration(i)*time.Hour))
	}
	if len(cfg.AuditLog) != auditLogLimit {
		t.Fatalf("audit log not bounded: %d", len(cfg.AuditLog))
	}
}

func TestInputConfigNotMutated(t *testing.T) {
	o := New(logger.Nop())
	cur := models.DefaultOptimizationConfig()
	before := fmt.Sprintf("%+v", *cur)

	_ = o.Run(cur, history(12), nil, time.Now())
	if fmt.Sprintf("%+v", *cur) != before {
		t.Fatal("Run mutated its input config")
	}
}
