package risk

import (
	"PerpSignals/internal/domain/models"
)

const (
	// Kelly sizing only activates with a statistically meaningful sample.
	kellyMinSamples = 20

	maxStreakBonus = 1.5
	hardCeilingPct = 5.0
	hardFloorPct   = 0.1
)

// AdjustedRisk computes the per-trade risk percentage. It is a pure function
// of its inputs: a Kelly-derived base, an anti-martingale win-streak
// multiplier, a market-regime multiplier and a confidence-tier multiplier,
// multiplied together and clamped to hard bounds.
func AdjustedRisk(baseRisk float64, closed []*models.Trade, winStreak int, regime string, confidence float64) float64 {
	risk := kellyBase(baseRisk, closed)
	risk *= streakMultiplier(winStreak)
	risk *= regimeMultiplier(regime)
	risk *= confidenceMultiplier(confidence)
	return clamp(risk, hardFloorPct, hardCeilingPct)
}

// kellyBase scales baseRisk by the Kelly criterion edge from closed-trade
// history. Below the sample floor it falls back to baseRisk untouched.
func kellyBase(baseRisk float64, closed []*models.Trade) float64 {
	var wins, losses int
	var winSum, lossSum float64
	for _, t := range closed {
		if t.IsOpen() || t.Result == models.ResultExpired {
			continue
		}
		if t.Pnl >= 0 {
			wins++
			winSum += t.Pnl
		} else {
			losses++
			lossSum -= t.Pnl
		}
	}

	n := wins + losses
	if n < kellyMinSamples || wins == 0 || losses == 0 {
		return baseRisk
	}

	winRate := float64(wins) / float64(n)
	avgWin := winSum / float64(wins)
	avgLoss := lossSum / float64(losses)
	if avgLoss <= 0 {
		return baseRisk
	}

	// kelly = W - (1-W)/R with R the payoff ratio
	payoff := avgWin / avgLoss
	kelly := winRate - (1-winRate)/payoff

	if kelly <= 0 {
		// negative edge: trade half size until the history improves
		return baseRisk * 0.5
	}
	scaled := baseRisk * (1 + kelly)
	if scaled > baseRisk*2 {
		scaled = baseRisk * 2
	}
	return scaled
}

// streakMultiplier grows risk slightly on a win streak, capped so a hot run
// never doubles exposure.
func streakMultiplier(winStreak int) float64 {
	if winStreak <= 0 {
		return 1.0
	}
	if winStreak > 5 {
		winStreak = 5
	}
	mult := 1.0 + 0.1*float64(winStreak)
	if mult > maxStreakBonus {
		mult = maxStreakBonus
	}
	return mult
}

func regimeMultiplier(regime string) float64 {
	switch regime {
	case models.RegimeTrending:
		return 1.2
	case models.RegimeRanging:
		return 0.8
	case models.RegimeQuiet:
		return 0.9
	case models.RegimeVolatile:
		return 0.5
	default:
		return 1.0
	}
}

func confidenceMultiplier(confidence float64) float64 {
	switch {
	case confidence >= 85:
		return 1.3
	case confidence >= 75:
		return 1.15
	case confidence >= 65:
		return 1.0
	default:
		return 0.8
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
