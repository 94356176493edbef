package lifecycle

import (
	"math"
	"time"

	"PerpSignals/internal/domain/models"
)

// NewPortfolio builds an empty portfolio for one tier.
func NewPortfolio(tier models.Tier, balance float64) *models.Portfolio {
	return &models.Portfolio{
		Tier:    tier,
		Balance: balance,
	}
}

// recompute refreshes derived state after any mutation: equity history gets
// a point and is truncated, the trade list is truncated from the oldest end,
// and stats are rebuilt.
func (m *Manager) recompute(p *models.Portfolio, now time.Time) {
	p.EquityHistory = append(p.EquityHistory, models.EquityPoint{Timestamp: now, Balance: p.Balance})
	if n := len(p.EquityHistory); n > m.cfg.EquityPoints {
		p.EquityHistory = p.EquityHistory[n-m.cfg.EquityPoints:]
	}
	if n := len(p.Trades); n > m.cfg.MaxTrades {
		p.Trades = p.Trades[n-m.cfg.MaxTrades:]
	}
	p.Stats = computeStats(p)
	p.UpdatedAt = now
}

func computeStats(p *models.Portfolio) models.PortfolioStats {
	var s models.PortfolioStats
	s.TotalTrades = len(p.Trades)

	var closedPnls []float64
	for _, t := range p.Trades {
		if t.IsOpen() {
			s.OpenTrades++
			continue
		}
		if t.Result == models.ResultExpired {
			continue
		}
		closedPnls = append(closedPnls, t.Pnl)
		s.TotalPnl += t.Pnl
		if t.Result == models.ResultWin {
			s.Wins++
		} else {
			s.Losses++
		}
	}

	closed := s.Wins + s.Losses
	if closed > 0 {
		s.WinRate = float64(s.Wins) / float64(closed)
		s.Expectancy = s.TotalPnl / float64(closed)
	}
	s.SharpeRatio = sharpeLike(closedPnls)
	s.MaxDrawdown = maxDrawdown(p.EquityHistory)
	s.WinStreak, s.LossStreak = streaks(p.Trades)
	return s
}

// sharpeLike is mean over stddev of closed-trade PnL. Not annualized; used
// only as a relative quality gauge.
func sharpeLike(pnls []float64) float64 {
	if len(pnls) < 2 {
		return 0
	}
	var mean float64
	for _, v := range pnls {
		mean += v
	}
	mean /= float64(len(pnls))

	var variance float64
	for _, v := range pnls {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(pnls) - 1)
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance)
}

func maxDrawdown(history []models.EquityPoint) float64 {
	var peak, maxDD float64
	for _, pt := range history {
		if pt.Balance > peak {
			peak = pt.Balance
		}
		if peak > 0 {
			dd := (peak - pt.Balance) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// streaks returns the current consecutive win and loss runs, counted from
// the most recently closed trade backward. One of the two is always zero.
func streaks(trades []*models.Trade) (wins, losses int) {
	for i := len(trades) - 1; i >= 0; i-- {
		t := trades[i]
		if t.IsOpen() || t.Result == models.ResultExpired {
			continue
		}
		if t.Result == models.ResultWin {
			if losses > 0 {
				return
			}
			wins++
		} else {
			if wins > 0 {
				return
			}
			losses++
		}
	}
	return
}
