package optimizer

import "math"

// Bounds are the domain hard limits a parameter can never leave, no matter
// what the historical signal says.
type Bounds struct {
	Min float64
	Max float64
}

// Hard bounds per tuned dimension.
var (
	confidenceBounds = Bounds{Min: 50, Max: 85}
	riskRewardBounds = Bounds{Min: 1.0, Max: 3.0}
	adxBounds        = Bounds{Min: 15, Max: 35}
	cooldownBounds   = Bounds{Min: 1, Max: 12}
	weightBounds     = Bounds{Min: 0.3, Max: 2.0}
)

// BoundedAdjust moves old toward optimal, limiting a single step to
// rate (a fraction) of the old value and clamping to the hard bounds.
// One cycle can therefore never swing a parameter by more than the rate.
func BoundedAdjust(old, optimal, rate float64, b Bounds) float64 {
	if rate <= 0 {
		rate = 0.2
	}
	step := math.Min(math.Abs(optimal-old), math.Abs(old)*rate)
	next := old
	if optimal > old {
		next = old + step
	} else if optimal < old {
		next = old - step
	}
	return clamp(next, b)
}

func clamp(v float64, b Bounds) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
