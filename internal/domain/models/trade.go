package models

import (
	"time"
)

// TradeStatus is the lifecycle state of a trade. Transitions are monotone:
// a trade never moves backward through this list.
type TradeStatus string

const (
	StatusPendingEntry TradeStatus = "PENDING_ENTRY"
	StatusActive       TradeStatus = "ACTIVE"
	StatusPartialTP1   TradeStatus = "PARTIAL_TP1"
	StatusPartialTP2   TradeStatus = "PARTIAL_TP2"
	StatusClosed       TradeStatus = "CLOSED"
)

// Outcome label of a closed trade. Reflects the sign of total PnL, not the
// exit cause: a stop-out after banked partials can still be a WIN.
type TradeResult string

const (
	ResultWin     TradeResult = "WIN"
	ResultLoss    TradeResult = "LOSS"
	ResultExpired TradeResult = "EXPIRED"
)

// CloseReason describes what triggered the final close.
type CloseReason string

const (
	CloseStopLoss   CloseReason = "STOP_LOSS"
	CloseTakeProfit CloseReason = "TAKE_PROFIT"
	CloseExpiry     CloseReason = "EXPIRY"
	CloseManual     CloseReason = "MANUAL"
)

// PartialFlags marks which take-profit rungs have already fired. Re-applying
// a set flag is a no-op in the lifecycle manager.
type PartialFlags struct {
	TP1 bool `json:"tp1"`
	TP2 bool `json:"tp2"`
	TP3 bool `json:"tp3"`
}

// Trade is the lifecycle entity for one managed position.
type Trade struct {
	ID               string       `json:"id"`
	Symbol           string       `json:"symbol"`
	Direction        Direction    `json:"direction"`
	Entry            float64      `json:"entry"`
	StopLoss         float64      `json:"stopLoss"`
	OriginalStopLoss float64      `json:"originalStopLoss,omitempty"`
	TakeProfit       float64      `json:"takeProfit"`
	Size             float64      `json:"size"`
	RemainingSize    float64      `json:"remainingSize"`
	Leverage         float64      `json:"leverage"`
	Confidence       float64      `json:"confidence"`
	Tier             Tier         `json:"tier"`
	Status           TradeStatus  `json:"status"`
	Partials         PartialFlags `json:"partialFlags"`
	PartialPnlAccum  float64      `json:"partialPnlAccum"`
	IsTrailing       bool         `json:"isTrailing"`
	Regime           string       `json:"regime,omitempty"`
	AISources        []string     `json:"aiSources,omitempty"`
	OpenedAt         time.Time    `json:"openedAt"`
	ClosedAt         time.Time    `json:"closedAt,omitempty"`
	ExitPrice        float64      `json:"exitPrice,omitempty"`
	Pnl              float64      `json:"pnl"`
	Result           TradeResult  `json:"result,omitempty"`
	ClosedBy         CloseReason  `json:"closedBy,omitempty"`
}

// IsOpen reports whether the trade still has exposure.
func (t *Trade) IsOpen() bool {
	return t.Status != StatusClosed
}

// OriginalOrCurrentStop returns the stop the trade was planned with, before
// any trailing moves.
func (t *Trade) OriginalOrCurrentStop() float64 {
	if t.OriginalStopLoss > 0 {
		return t.OriginalStopLoss
	}
	return t.StopLoss
}

// PnlAt returns the unrealized PnL for qty units exited at price.
func (t *Trade) PnlAt(price, qty float64) float64 {
	if t.Entry <= 0 {
		return 0
	}
	if t.Direction == Long {
		return (price - t.Entry) / t.Entry * qty
	}
	return (t.Entry - price) / t.Entry * qty
}

// ProgressAt reports how far price has travelled from entry toward the take
// profit, as a fraction of the full distance. Negative when under water.
func (t *Trade) ProgressAt(price float64) float64 {
	dist := t.TakeProfit - t.Entry
	if t.Direction == Short {
		dist = t.Entry - t.TakeProfit
	}
	if dist <= 0 {
		return 0
	}
	if t.Direction == Long {
		return (price - t.Entry) / dist
	}
	return (t.Entry - price) / dist
}

// StopHit reports whether price has crossed the current (possibly trailed)
// stop-loss.
func (t *Trade) StopHit(price float64) bool {
	if t.Direction == Long {
		return price <= t.StopLoss
	}
	return price >= t.StopLoss
}
