package lifecycle

import (
	"fmt"
	"time"

	"PerpSignals/internal/domain/models"
	"PerpSignals/pkg/logger"
)

// Partial take-profit ladder: rung trigger as a fraction of the entry→TP
// distance, and the fraction of the ORIGINAL size each rung closes.
// The close fractions sum to exactly 1.0.
var tpLadder = []struct {
	progress float64
	fraction float64
}{
	{0.50, 0.40},
	{0.75, 0.30},
	{1.00, 0.30},
}

// Config tunes the lifecycle mechanics. Zero values fall back to the
// defaults below.
type Config struct {
	BreakevenProgress float64       // progress toward TP that arms the trailing stop
	TrailPct          float64       // trail distance as % of entry price
	PendingExpiry     time.Duration // PENDING_ENTRY discard age
	MaxTrades         int           // portfolio trade list bound
	EquityPoints      int           // equity history bound
}

func (c *Config) applyDefaults() {
	if c.BreakevenProgress <= 0 {
		c.BreakevenProgress = 0.5
	}
	if c.TrailPct <= 0 {
		c.TrailPct = 3.0
	}
	if c.PendingExpiry <= 0 {
		c.PendingExpiry = 48 * time.Hour
	}
	if c.MaxTrades <= 0 {
		c.MaxTrades = 200
	}
	if c.EquityPoints <= 0 {
		c.EquityPoints = 500
	}
}

// Manager advances trades through their lifecycle against price snapshots.
// It holds no cross-invocation state: every method is a pure reducer over
// the portfolio document it is given, and re-applying a tick to an already
// closed trade is a no-op.
type Manager struct {
	cfg Config
	log *logger.Logger
}

func NewManager(cfg Config, log *logger.Logger) *Manager {
	cfg.applyDefaults()
	return &Manager{cfg: cfg, log: log}
}

// Open converts an accepted signal into an ACTIVE trade. Returns nil when
// the symbol already has an open trade (entry dedup backstop).
func (m *Manager) Open(p *models.Portfolio, sig models.ConsensusSignal, size, leverage float64, regime string, now time.Time) *models.Trade {
	if existing := p.OpenTrade(sig.Symbol); existing != nil {
		m.log.Debug("open skipped, symbol already has a position",
			logger.String("symbol", sig.Symbol), logger.String("trade", existing.ID))
		return nil
	}

	t := &models.Trade{
		ID:            fmt.Sprintf("%s-%s-%d", sig.Symbol, sig.Direction, now.UnixNano()),
		Symbol:        sig.Symbol,
		Direction:     sig.Direction,
		Entry:         sig.Entry,
		StopLoss:      sig.StopLoss,
		TakeProfit:    sig.TakeProfit,
		Size:          size,
		RemainingSize: size,
		Leverage:      leverage,
		Confidence:    sig.Confidence,
		Tier:          sig.Tier,
		Status:        models.StatusActive,
		Regime:        regime,
		AISources:     sig.AISources,
		OpenedAt:      now,
	}
	p.Trades = append(p.Trades, t)
	m.recompute(p, now)
	return t
}

// OpenPending records a signal that waits for a price touch before going
// live. It expires unfilled after cfg.PendingExpiry.
func (m *Manager) OpenPending(p *models.Portfolio, sig models.ConsensusSignal, size, leverage float64, regime string, now time.Time) *models.Trade {
	t := m.Open(p, sig, size, leverage, regime, now)
	if t != nil {
		t.Status = models.StatusPendingEntry
	}
	return t
}

// Tick applies one price snapshot to every open trade and returns the
// lifecycle events produced. Trades whose symbol has no price are skipped
// for the cycle.
func (m *Manager) Tick(p *models.Portfolio, prices map[string]float64, now time.Time) []models.TradeEvent {
	var events []models.TradeEvent
	changed := false

	for _, t := range p.Trades {
		if !t.IsOpen() {
			continue
		}
		price, ok := prices[t.Symbol]
		if !ok || price <= 0 {
			continue
		}
		evs := m.tickTrade(p, t, price, now)
		if len(evs) > 0 {
			changed = true
			events = append(events, evs...)
		}
	}

	if changed {
		m.recompute(p, now)
	}
	return events
}

func (m *Manager) tickTrade(p *models.Portfolio, t *models.Trade, price float64, now time.Time) []models.TradeEvent {
	if t.Status == models.StatusPendingEntry {
		return m.tickPending(t, price, now)
	}

	var events []models.TradeEvent

	// 1. breakeven / trailing ratchet, before any exit checks
	if ev, moved := m.updateTrailing(t, price, now); moved {
		events = append(events, ev)
	}

	// 2. stop check against the possibly trailed level. Worst-case
	// tie-break: when a gap crosses both the stop and a TP rung in the
	// same snapshot, the stop wins.
	if t.StopHit(price) {
		events = append(events, m.closeAtStop(p, t, now))
		return events
	}

	// 3. partial take-profit ladder
	events = append(events, m.applyLadder(p, t, price, now)...)
	return events
}

func (m *Manager) tickPending(t *models.Trade, price float64, now time.Time) []models.TradeEvent {
	// price touch activates the trade
	touched := (t.Direction == models.Long && price <= t.Entry) ||
		(t.Direction == models.Short && price >= t.Entry)
	if touched {
		t.Status = models.StatusActive
		t.OpenedAt = now
		return []models.TradeEvent{{
			Type: models.EventTradeOpened, Tier: t.Tier, Symbol: t.Symbol,
			Direction: t.Direction, Price: price, Size: t.Size, Timestamp: now,
		}}
	}
	if now.Sub(t.OpenedAt) >= m.cfg.PendingExpiry {
		t.Status = models.StatusClosed
		t.Result = models.ResultExpired
		t.ClosedBy = models.CloseExpiry
		t.ClosedAt = now
		t.RemainingSize = 0
		return []models.TradeEvent{{
			Type: models.EventTradeExpired, Tier: t.Tier, Symbol: t.Symbol,
			Direction: t.Direction, Timestamp: now,
		}}
	}
	return nil
}

// updateTrailing arms the breakeven/trailing stop once price has covered
// enough of the distance to target. The stored stop only ever ratchets in
// the favorable direction.
func (m *Manager) updateTrailing(t *models.Trade, price float64, now time.Time) (models.TradeEvent, bool) {
	if t.ProgressAt(price) < m.cfg.BreakevenProgress {
		return models.TradeEvent{}, false
	}

	trail := t.Entry * m.cfg.TrailPct / 100
	var candidate float64
	if t.Direction == models.Long {
		candidate = price - trail
		if candidate < t.Entry {
			candidate = t.Entry // floor at breakeven
		}
		if candidate <= t.StopLoss {
			return models.TradeEvent{}, false
		}
	} else {
		candidate = price + trail
		if candidate > t.Entry {
			candidate = t.Entry // cap at breakeven
		}
		if candidate >= t.StopLoss {
			return models.TradeEvent{}, false
		}
	}

	if t.OriginalStopLoss == 0 {
		t.OriginalStopLoss = t.StopLoss
	}
	t.StopLoss = candidate
	t.IsTrailing = true
	return models.TradeEvent{
		Type: models.EventStopMoved, Tier: t.Tier, Symbol: t.Symbol,
		Direction: t.Direction, Price: candidate, Timestamp: now,
		Detail: "trailing stop moved",
	}, true
}

func (m *Manager) closeAtStop(p *models.Portfolio, t *models.Trade, now time.Time) models.TradeEvent {
	exit := t.StopLoss
	slicePnl := t.PnlAt(exit, t.RemainingSize)

	t.ExitPrice = exit
	t.Pnl = t.PartialPnlAccum + slicePnl
	t.RemainingSize = 0
	t.Status = models.StatusClosed
	t.ClosedAt = now
	t.ClosedBy = models.CloseStopLoss
	// outcome label follows total PnL sign, not the exit cause
	if t.Pnl >= 0 {
		t.Result = models.ResultWin
	} else {
		t.Result = models.ResultLoss
	}

	p.Balance += slicePnl
	return models.TradeEvent{
		Type: models.EventTradeClosed, Tier: t.Tier, Symbol: t.Symbol,
		Direction: t.Direction, Price: exit, Pnl: t.Pnl, Timestamp: now,
		Detail: string(t.Result),
	}
}

func (m *Manager) applyLadder(p *models.Portfolio, t *models.Trade, price float64, now time.Time) []models.TradeEvent {
	progress := t.ProgressAt(price)
	var events []models.TradeEvent

	for i, rung := range tpLadder {
		if m.partialDone(t, i) {
			continue
		}
		if progress < rung.progress {
			break
		}

		if i == len(tpLadder)-1 {
			// TP3 closes the remainder
			slicePnl := t.PnlAt(price, t.RemainingSize)
			t.ExitPrice = price
			t.Pnl = t.PartialPnlAccum + slicePnl
			t.RemainingSize = 0
			t.Partials.TP3 = true
			t.Status = models.StatusClosed
			t.ClosedAt = now
			t.ClosedBy = models.CloseTakeProfit
			t.Result = models.ResultWin
			p.Balance += slicePnl
			events = append(events, models.TradeEvent{
				Type: models.EventTradeClosed, Tier: t.Tier, Symbol: t.Symbol,
				Direction: t.Direction, Price: price, Pnl: t.Pnl, Timestamp: now,
				Detail: "TP3",
			})
			break
		}

		closeSize := t.Size * rung.fraction
		if closeSize > t.RemainingSize {
			closeSize = t.RemainingSize
		}
		slicePnl := t.PnlAt(price, closeSize)
		t.RemainingSize -= closeSize
		t.PartialPnlAccum += slicePnl
		p.Balance += slicePnl

		switch i {
		case 0:
			t.Partials.TP1 = true
			t.Status = models.StatusPartialTP1
			// TP1 moves the stop to breakeven unless trailing already did
			if !t.IsTrailing && t.StopLoss != t.Entry {
				if t.OriginalStopLoss == 0 {
					t.OriginalStopLoss = t.StopLoss
				}
				t.StopLoss = t.Entry
				events = append(events, models.TradeEvent{
					Type: models.EventStopMoved, Tier: t.Tier, Symbol: t.Symbol,
					Direction: t.Direction, Price: t.Entry, Timestamp: now,
					Detail: "breakeven after TP1",
				})
			}
		case 1:
			t.Partials.TP2 = true
			t.Status = models.StatusPartialTP2
		}

		events = append(events, models.TradeEvent{
			Type: models.EventPartialClose, Tier: t.Tier, Symbol: t.Symbol,
			Direction: t.Direction, Price: price, Size: closeSize, Pnl: slicePnl,
			Timestamp: now, Detail: fmt.Sprintf("TP%d", i+1),
		})
	}
	return events
}

func (m *Manager) partialDone(t *models.Trade, rung int) bool {
	switch rung {
	case 0:
		return t.Partials.TP1
	case 1:
		return t.Partials.TP2
	default:
		return t.Partials.TP3
	}
}
