package models

import "time"

// Trade event types published to the event bus.
const (
	EventSignalAccepted = "SIGNAL_ACCEPTED"
	EventTradeOpened    = "TRADE_OPENED"
	EventPartialClose   = "PARTIAL_CLOSE"
	EventStopMoved      = "STOP_MOVED"
	EventTradeClosed    = "TRADE_CLOSED"
	EventTradeExpired   = "TRADE_EXPIRED"
)

// TradeEvent is one lifecycle event, keyed by symbol on the bus so per-symbol
// ordering is preserved.
type TradeEvent struct {
	Type      string    `json:"type"`
	Tier      Tier      `json:"tier"`
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction,omitempty"`
	Price     float64   `json:"price,omitempty"`
	Size      float64   `json:"size,omitempty"`
	Pnl       float64   `json:"pnl,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
