package models

import (
	"fmt"
	"math"
	"strings"
)

// Direction of a trade.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// ParseDirection normalizes a direction string. BUY/SELL aliases are
// accepted because some models answer in order terms.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return Long, true
	case "SHORT", "SELL":
		return Short, true
	}
	return "", false
}

// Opposite returns the reversed direction.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// RawProposal is a single model's trade opinion for one scan cycle. It is
// ephemeral and never persisted on its own.
type RawProposal struct {
	Source       string    `json:"source"`
	Symbol       string    `json:"symbol"`
	Direction    Direction `json:"direction"`
	Confidence   float64   `json:"confidence"`
	Entry        float64   `json:"entry"`
	StopLoss     float64   `json:"stopLoss"`
	TakeProfit   float64   `json:"takeProfit"`
	EntryTrigger string    `json:"entryTrigger,omitempty"`
	Reasons      []string  `json:"reasons,omitempty"`
}

// NewRawProposal validates the shape at the boundary and rejects anything a
// downstream consumer could choke on. Malformed model output is dropped at
// parse time, never later.
func NewRawProposal(source, symbol, direction string, confidence, entry, stopLoss, takeProfit float64, trigger string, reasons []string) (RawProposal, error) {
	dir, ok := ParseDirection(direction)
	if !ok {
		return RawProposal{}, fmt.Errorf("proposal %s/%s: bad direction %q", source, symbol, direction)
	}
	if symbol == "" {
		return RawProposal{}, fmt.Errorf("proposal from %s: empty symbol", source)
	}
	if !isFinite(confidence) || confidence < 0 || confidence > 100 {
		return RawProposal{}, fmt.Errorf("proposal %s/%s: confidence %v out of range", source, symbol, confidence)
	}
	if !isFinite(entry) || !isFinite(stopLoss) || !isFinite(takeProfit) || entry <= 0 || stopLoss <= 0 || takeProfit <= 0 {
		return RawProposal{}, fmt.Errorf("proposal %s/%s: non-positive price level", source, symbol)
	}
	if err := CheckLevelOrder(dir, entry, stopLoss, takeProfit); err != nil {
		return RawProposal{}, fmt.Errorf("proposal %s/%s: %w", source, symbol, err)
	}

	return RawProposal{
		Source:       source,
		Symbol:       strings.ToUpper(symbol),
		Direction:    dir,
		Confidence:   confidence,
		Entry:        entry,
		StopLoss:     stopLoss,
		TakeProfit:   takeProfit,
		EntryTrigger: strings.ToUpper(strings.TrimSpace(trigger)),
		Reasons:      reasons,
	}, nil
}

// CheckLevelOrder enforces direction ordering of price levels:
// LONG needs SL < entry < TP, SHORT needs TP < entry < SL.
func CheckLevelOrder(dir Direction, entry, stopLoss, takeProfit float64) error {
	switch dir {
	case Long:
		if !(stopLoss < entry && entry < takeProfit) {
			return fmt.Errorf("level order violated for LONG (sl=%v entry=%v tp=%v)", stopLoss, entry, takeProfit)
		}
	case Short:
		if !(takeProfit < entry && entry < stopLoss) {
			return fmt.Errorf("level order violated for SHORT (tp=%v entry=%v sl=%v)", takeProfit, entry, stopLoss)
		}
	default:
		return fmt.Errorf("unknown direction %q", dir)
	}
	return nil
}

// RiskReward is the TP distance over the SL distance.
func (p RawProposal) RiskReward() float64 {
	risk := math.Abs(p.Entry - p.StopLoss)
	if risk == 0 {
		return 0
	}
	return math.Abs(p.TakeProfit-p.Entry) / risk
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
