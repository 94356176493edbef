package models

import (
	"math"
	"time"
)

// Tier of a consensus signal. Gold means all three models agreed,
// Silver means exactly two.
type Tier string

const (
	TierGold   Tier = "GOLD"
	TierSilver Tier = "SILVER"
)

// ConsensusSignal is the agreement of at least two distinct model sources
// within wiggle tolerance. Levels and confidence are arithmetic means of
// the agreeing proposals.
type ConsensusSignal struct {
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	Entry      float64   `json:"entry"`
	StopLoss   float64   `json:"stopLoss"`
	TakeProfit float64   `json:"takeProfit"`
	Confidence float64   `json:"confidence"`
	AISources  []string  `json:"aiSources"`
	Tier       Tier      `json:"tier"`
	Reasons    []string  `json:"reasons,omitempty"`
}

// RiskReward is the TP distance over the SL distance.
func (s ConsensusSignal) RiskReward() float64 {
	risk := math.Abs(s.Entry - s.StopLoss)
	if risk == 0 {
		return 0
	}
	return math.Abs(s.TakeProfit-s.Entry) / risk
}

// LastSignalRecord is the per-symbol cooldown record, overwritten every time
// a signal is accepted for the symbol.
type LastSignalRecord struct {
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	Entry     float64   `json:"entry"`
	Timestamp time.Time `json:"timestamp"`
}

// ShadowSignal tracks a proposal that was not necessarily traded, purely to
// score the proposing model's hypothetical accuracy.
type ShadowSignal struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	Entry      float64   `json:"entry"`
	CreatedAt  time.Time `json:"createdAt"`
	Resolved   bool      `json:"resolved"`
	Won        bool      `json:"won"`
	ResolvedAt time.Time `json:"resolvedAt,omitempty"`
}

// ConfirmRecord is a time-boxed external indicator confirmation stored by
// the inbound webhook.
type ConfirmRecord struct {
	Symbol    string    `json:"symbol"`
	Signal    string    `json:"signal"` // BUY or SELL
	Price     float64   `json:"price,omitempty"`
	Interval  string    `json:"interval,omitempty"`
	Indicator string    `json:"indicator,omitempty"`
	StoredAt  time.Time `json:"storedAt"`
}
