package repository

import (
	"context"
	"strings"

	"PerpSignals/internal/domain/models"
	drepo "PerpSignals/internal/domain/repository"
	"PerpSignals/pkg/clickhouse"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS closed_trades (
    closed_at        DateTime,
    opened_at        DateTime,
    tier             LowCardinality(String),
    trade_id         String,
    symbol           LowCardinality(String),
    direction        LowCardinality(String),
    entry            Float64,
    exit_price       Float64,
    stop_loss        Float64,
    original_stop    Float64,
    take_profit      Float64,
    size_usd         Float64,
    pnl_usd          Float64,
    result           LowCardinality(String),
    closed_by        LowCardinality(String),
    confidence       Float64,
    regime           LowCardinality(String),
    ai_sources       String,
    was_trailing     UInt8
) ENGINE = MergeTree()
ORDER BY (symbol, closed_at)
PARTITION BY toYYYYMM(closed_at)`

const journalInsert = `
INSERT INTO closed_trades (
    closed_at, opened_at, tier, trade_id, symbol, direction,
    entry, exit_price, stop_loss, original_stop, take_profit,
    size_usd, pnl_usd, result, closed_by, confidence, regime,
    ai_sources, was_trailing
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// TradeJournal appends closed trades to ClickHouse for offline analysis.
// It is write-only from the engine's point of view.
type TradeJournal struct {
	client *clickhouse.Client
}

// NewTradeJournal creates a ClickHouse-backed journal.
func NewTradeJournal(client *clickhouse.Client) drepo.TradeJournal {
	return &TradeJournal{client: client}
}

// Init creates the journal table if missing.
func (j *TradeJournal) Init(ctx context.Context) error {
	return j.client.InitSchema(ctx, []string{journalSchema})
}

// Append writes one closed trade.
func (j *TradeJournal) Append(ctx context.Context, tier models.Tier, t *models.Trade) error {
	trailing := uint8(0)
	if t.IsTrailing {
		trailing = 1
	}
	_, err := j.client.DB().ExecContext(ctx, journalInsert,
		t.ClosedAt,
		t.OpenedAt,
		string(tier),
		t.ID,
		t.Symbol,
		string(t.Direction),
		t.Entry,
		t.ExitPrice,
		t.StopLoss,
		t.OriginalOrCurrentStop(),
		t.TakeProfit,
		t.Size,
		t.Pnl,
		string(t.Result),
		string(t.ClosedBy),
		t.Confidence,
		t.Regime,
		strings.Join(t.AISources, ","),
		trailing,
	)
	return err
}

// Close releases the connection pool.
func (j *TradeJournal) Close() error {
	return j.client.Close()
}

// NopJournal is used when ClickHouse is not configured.
type NopJournal struct{}

func (NopJournal) Init(context.Context) error                               { return nil }
func (NopJournal) Append(context.Context, models.Tier, *models.Trade) error { return nil }
func (NopJournal) Close() error                                             { return nil }
