package lifecycle

import (
	"math"
	"testing"
	"time"

	"PerpSignals/internal/domain/models"
	"PerpSignals/pkg/logger"
)

func newManager() *Manager {
	return NewManager(Config{}, logger.Nop())
}

func longSignal() models.ConsensusSignal {
	return models.ConsensusSignal{
		Symbol: "BTCUSDT", Direction: models.Long,
		Entry: 100, StopLoss: 98, TakeProfit: 106,
		Confidence: 75, Tier: models.TierSilver,
		AISources: []string{"claude", "gpt"},
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestOpenDedupsPerSymbol(t *testing.T) {
	m := newManager()
	p := NewPortfolio(models.TierSilver, 10_000)
	now := time.Now()

	first := m.Open(p, longSignal(), 1000, 10, models.RegimeTrending, now)
	if first == nil {
		t.Fatal("first open failed")
	}
	if second := m.Open(p, longSignal(), 1000, 10, models.RegimeTrending, now); second != nil {
		t.Fatal("second open trade for the same symbol was allowed")
	}
}

// The worked scenario: LONG 100/98/106, size 1000. At 103 the stop moves to
// breakeven and TP1 banks 12 on 400 units. Back at 100 the stop closes the
// remainder flat, total PnL 12, labelled WIN.
func TestBreakevenPartialThenStopOut(t *testing.T) {
	m := newManager()
	p := NewPortfolio(models.TierSilver, 10_000)
	now := time.Now()

	tr := m.Open(p, longSignal(), 1000, 10, models.RegimeTrending, now)

	events := m.Tick(p, map[string]float64{"BTCUSDT": 103}, now.Add(time.Minute))
	if len(events) == 0 {
		t.Fatal("expected events at 103")
	}
	if !tr.Partials.TP1 {
		t.Fatal("TP1 not flagged")
	}
	if !approx(tr.StopLoss, 100) {
		t.Fatalf("stop expected at breakeven 100, got %v", tr.StopLoss)
	}
	if tr.OriginalStopLoss != 98 {
		t.Fatalf("original stop not recorded, got %v", tr.OriginalStopLoss)
	}
	if !approx(tr.PartialPnlAccum, 12) {
		t.Fatalf("expected banked PnL 12, got %v", tr.PartialPnlAccum)
	}
	if !approx(tr.RemainingSize, 600) {
		t.Fatalf("expected remainingSize 600, got %v", tr.RemainingSize)
	}
	if tr.Status != models.StatusPartialTP1 {
		t.Fatalf("expected PARTIAL_TP1, got %s", tr.Status)
	}

	m.Tick(p, map[string]float64{"BTCUSDT": 100}, now.Add(2*time.Minute))
	if tr.Status != models.StatusClosed {
		t.Fatalf("expected CLOSED, got %s", tr.Status)
	}
	if !approx(tr.Pnl, 12) {
		t.Fatalf("expected total PnL 12, got %v", tr.Pnl)
	}
	if tr.Result != models.ResultWin {
		t.Fatalf("breakeven stop-out with banked profit must be WIN, got %s", tr.Result)
	}
	if tr.ClosedBy != models.CloseStopLoss {
		t.Fatalf("expected STOP_LOSS close reason, got %s", tr.ClosedBy)
	}
	if !approx(p.Balance, 10_012) {
		t.Fatalf("expected balance 10012, got %v", p.Balance)
	}
}

func TestFullLadderClosesEverything(t *testing.T) {
	m := newManager()
	p := NewPortfolio(models.TierSilver, 10_000)
	now := time.Now()

	tr := m.Open(p, longSignal(), 1000, 10, models.RegimeTrending, now)

	// straight to target: all three rungs fire in one tick
	m.Tick(p, map[string]float64{"BTCUSDT": 106}, now.Add(time.Minute))

	if tr.Status != models.StatusClosed || tr.Result != models.ResultWin {
		t.Fatalf("expected CLOSED WIN, got %s/%s", tr.Status, tr.Result)
	}
	if !tr.Partials.TP1 || !tr.Partials.TP2 || !tr.Partials.TP3 {
		t.Fatalf("all partial flags expected, got %+v", tr.Partials)
	}
	if tr.RemainingSize != 0 {
		t.Fatalf("remainingSize must be 0, got %v", tr.RemainingSize)
	}
	// 6% on the full 1000: 40% at +6, 30% at +6, 30% at +6 => 60 total
	if !approx(tr.Pnl, 60) {
		t.Fatalf("expected PnL 60, got %v", tr.Pnl)
	}
}

func TestPartialSizesAccountExactly(t *testing.T) {
	m := newManager()
	p := NewPortfolio(models.TierSilver, 10_000)
	now := time.Now()

	tr := m.Open(p, longSignal(), 1000, 10, models.RegimeTrending, now)

	m.Tick(p, map[string]float64{"BTCUSDT": 103}, now.Add(time.Minute)) // TP1 40%
	if !approx(tr.Size-tr.RemainingSize, 400) {
		t.Fatalf("after TP1 closed size must be 400, got %v", tr.Size-tr.RemainingSize)
	}
	m.Tick(p, map[string]float64{"BTCUSDT": 104.5}, now.Add(2*time.Minute)) // TP2 30%
	if !approx(tr.Size-tr.RemainingSize, 700) {
		t.Fatalf("after TP2 closed size must be 700, got %v", tr.Size-tr.RemainingSize)
	}
	if tr.RemainingSize < 0 {
		t.Fatalf("remainingSize negative: %v", tr.RemainingSize)
	}
}

func TestTrailingStopNeverLoosens(t *testing.T) {
	m := newManager()
	p := NewPortfolio(models.TierSilver, 10_000)
	now := time.Now()

	tr := m.Open(p, longSignal(), 1000, 10, models.RegimeTrending, now)

	prices := []float64{103, 104.6, 104, 103.5}
	var lastStop float64
	for i, px := range prices {
		m.Tick(p, map[string]float64{"BTCUSDT": px}, now.Add(time.Duration(i+1)*time.Minute))
		if tr.Status == models.StatusClosed {
			break
		}
		if tr.IsTrailing && tr.StopLoss < lastStop {
			t.Fatalf("stop loosened from %v to %v at price %v", lastStop, tr.StopLoss, px)
		}
		lastStop = tr.StopLoss
	}
	if !tr.IsTrailing {
		t.Fatal("trailing never armed")
	}
}

func TestShortTrailingDirection(t *testing.T) {
	m := newManager()
	p := NewPortfolio(models.TierSilver, 10_000)
	now := time.Now()

	sig := models.ConsensusSignal{
		Symbol: "ETHUSDT", Direction: models.Short,
		Entry: 100, StopLoss: 102, TakeProfit: 94,
		Confidence: 75, Tier: models.TierSilver,
	}
	tr := m.Open(p, sig, 1000, 10, models.RegimeTrending, now)

	// 50% progress for the short is 97
	m.Tick(p, map[string]float64{"ETHUSDT": 97}, now.Add(time.Minute))
	if !approx(tr.StopLoss, 100) {
		t.Fatalf("short stop expected capped at breakeven 100, got %v", tr.StopLoss)
	}

	// deeper in profit the stop ratchets below entry
	m.Tick(p, map[string]float64{"ETHUSDT": 95}, now.Add(2*time.Minute))
	if tr.StopLoss >= 100 {
		t.Fatalf("short stop should ratchet below 100, got %v", tr.StopLoss)
	}
}

func TestTickIdempotentOnClosedTrade(t *testing.T) {
	m := newManager()
	p := NewPortfolio(models.TierSilver, 10_000)
	now := time.Now()

	tr := m.Open(p, longSignal(), 1000, 10, models.RegimeTrending, now)
	m.Tick(p, map[string]float64{"BTCUSDT": 97}, now.Add(time.Minute))
	if tr.Status != models.StatusClosed || tr.Result != models.ResultLoss {
		t.Fatalf("expected CLOSED LOSS, got %s/%s", tr.Status, tr.Result)
	}

	pnl, balance, closedAt := tr.Pnl, p.Balance, tr.ClosedAt
	events := m.Tick(p, map[string]float64{"BTCUSDT": 97}, now.Add(2*time.Minute))
	if len(events) != 0 {
		t.Fatalf("closed trade produced events: %v", events)
	}
	if tr.Pnl != pnl || p.Balance != balance || !tr.ClosedAt.Equal(closedAt) {
		t.Fatal("re-applying tick mutated a closed trade")
	}
}

func TestPendingEntryExpiry(t *testing.T) {
	m := newManager()
	p := NewPortfolio(models.TierSilver, 10_000)
	now := time.Now()

	tr := m.OpenPending(p, longSignal(), 1000, 10, models.RegimeTrending, now)
	if tr.Status != models.StatusPendingEntry {
		t.Fatalf("expected PENDING_ENTRY, got %s", tr.Status)
	}

	// price stays above entry, 49 hours pass
	m.Tick(p, map[string]float64{"BTCUSDT": 105}, now.Add(49*time.Hour))
	if tr.Status != models.StatusClosed || tr.Result != models.ResultExpired {
		t.Fatalf("expected EXPIRED, got %s/%s", tr.Status, tr.Result)
	}
	if tr.Pnl != 0 {
		t.Fatalf("expiry must not impact PnL, got %v", tr.Pnl)
	}
}

func TestPendingEntryActivatesOnTouch(t *testing.T) {
	m := newManager()
	p := NewPortfolio(models.TierSilver, 10_000)
	now := time.Now()

	tr := m.OpenPending(p, longSignal(), 1000, 10, models.RegimeTrending, now)
	m.Tick(p, map[string]float64{"BTCUSDT": 99.5}, now.Add(time.Hour))
	if tr.Status != models.StatusActive {
		t.Fatalf("expected ACTIVE after touch, got %s", tr.Status)
	}
}

func TestBoundedHistoryAndStats(t *testing.T) {
	m := NewManager(Config{MaxTrades: 5, EquityPoints: 5}, logger.Nop())
	p := NewPortfolio(models.TierSilver, 10_000)
	now := time.Now()

	for i := 0; i < 10; i++ {
		sig := longSignal()
		sig.Symbol = sig.Symbol + string(rune('A'+i))
		tr := m.Open(p, sig, 100, 10, models.RegimeTrending, now.Add(time.Duration(i)*time.Minute))
		if tr == nil {
			t.Fatal("open failed")
		}
		m.Tick(p, map[string]float64{sig.Symbol: 97}, now.Add(time.Duration(i)*time.Minute+30*time.Second))
	}

	if len(p.Trades) > 5 {
		t.Fatalf("trade list unbounded: %d", len(p.Trades))
	}
	if len(p.EquityHistory) > 5 {
		t.Fatalf("equity history unbounded: %d", len(p.EquityHistory))
	}
	if p.Stats.Losses == 0 || p.Stats.WinRate != 0 {
		t.Fatalf("stats not recomputed: %+v", p.Stats)
	}
	if p.Stats.LossStreak == 0 {
		t.Fatal("loss streak expected")
	}
}
