package repository

import (
	"context"

	"PerpSignals/internal/domain/models"
)

// MarketData serves prices and candles over REST with ordered provider
// fallback and short timeouts. Total failure is reported as an error and the
// calling cycle skips, it never crashes.
type MarketData interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]float64, error)
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}

// MarketStream is an optional live ticker feed warming the price cache.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.Tick, <-chan error)
	Close() error
	IsConnected() bool
}

// ProposalProvider is one AI model. Propose returns nil on any failure;
// it never returns an error and never panics.
type ProposalProvider interface {
	Name() string
	Propose(ctx context.Context, symbol string, mc models.MarketContext, candles []models.Candle) []models.RawProposal
}

// Notifier delivers a best-effort user-facing message. Failures are logged
// by the implementation and reported via the return value only.
type Notifier interface {
	Notify(ctx context.Context, text string) bool
}

// EventPublisher pushes lifecycle events onto the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.TradeEvent) error
	Close() error
}

// TradeJournal is the append-only analytical sink for closed trades. Core
// logic never reads it back.
type TradeJournal interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, tier models.Tier, t *models.Trade) error
	Close() error
}

// Metrics records operational counters.
type Metrics interface {
	RecordSignal(tier, symbol string)
	RecordTradeOpened(tier, symbol string)
	RecordTradeClosed(tier, result string, pnl float64)
	RecordBalance(tier string, balance float64)
	RecordError(kind string)
	RecordCycleDuration(cycle string, seconds float64)
}
