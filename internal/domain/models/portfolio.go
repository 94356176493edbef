package models

import "time"

// EquityPoint is one sample of the portfolio equity curve.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Balance   float64   `json:"balance"`
}

// PortfolioStats are derived from the trade list on every mutation.
type PortfolioStats struct {
	TotalTrades int     `json:"totalTrades"`
	OpenTrades  int     `json:"openTrades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"winRate"` // 0..1 over closed trades
	TotalPnl    float64 `json:"totalPnl"`
	MaxDrawdown float64 `json:"maxDrawdown"` // fraction of peak equity
	Expectancy  float64 `json:"expectancy"`  // mean PnL per closed trade
	SharpeRatio float64 `json:"sharpeRatio"` // mean/stddev of closed PnL
	WinStreak   int     `json:"winStreak"`   // current consecutive wins
	LossStreak  int     `json:"lossStreak"`  // current consecutive losses
}

// Portfolio owns the bounded trade list, balance and equity history for one
// consensus tier. Two portfolios exist side by side (gold and silver) with
// the same shape.
type Portfolio struct {
	Tier          Tier           `json:"tier"`
	Balance       float64        `json:"balance"`
	Trades        []*Trade       `json:"trades"`
	EquityHistory []EquityPoint  `json:"equityHistory"`
	Stats         PortfolioStats `json:"stats"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// OpenTrade returns the open trade for symbol, or nil. At most one open
// trade per symbol is allowed; this is the backstop behind the coarse
// cooldown gate.
func (p *Portfolio) OpenTrade(symbol string) *Trade {
	for _, t := range p.Trades {
		if t.Symbol == symbol && t.IsOpen() {
			return t
		}
	}
	return nil
}

// ClosedTrades returns all closed trades, oldest first.
func (p *Portfolio) ClosedTrades() []*Trade {
	out := make([]*Trade, 0, len(p.Trades))
	for _, t := range p.Trades {
		if !t.IsOpen() {
			out = append(out, t)
		}
	}
	return out
}
