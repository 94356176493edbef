package market

import (
	"math"

	"PerpSignals/internal/domain/models"
)

const adxPeriod = 14

// Analyze derives a MarketContext from recent candles. Needs at least
// 2*adxPeriod+1 candles for a stable ADX; fewer candles yield ADX 0,
// which downstream filters treat as "unknown".
func Analyze(candles []models.Candle) models.MarketContext {
	mc := models.MarketContext{Regime: models.RegimeRanging}
	if len(candles) == 0 {
		return mc
	}
	mc.LastPrice = candles[len(candles)-1].Close
	mc.ADX = adx(candles, adxPeriod)
	mc.VolumeTrend = volumeTrend(candles)
	mc.Regime = classify(candles, mc.ADX)
	return mc
}

// Wilder's ADX over the given period.
func adx(candles []models.Candle, period int) float64 {
	if len(candles) < 2*period+1 {
		return 0
	}

	var trSum, plusSum, minusSum float64
	dxs := make([]float64, 0, len(candles))
	for i := 1; i < len(candles); i++ {
		cur, prev := candles[i], candles[i-1]

		tr := math.Max(cur.High-cur.Low,
			math.Max(math.Abs(cur.High-prev.Close), math.Abs(cur.Low-prev.Close)))

		upMove := cur.High - prev.High
		downMove := prev.Low - cur.Low
		var plusDM, minusDM float64
		if upMove > downMove && upMove > 0 {
			plusDM = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM = downMove
		}

		if i <= period {
			trSum += tr
			plusSum += plusDM
			minusSum += minusDM
			if i < period {
				continue
			}
		} else {
			// Wilder smoothing
			trSum = trSum - trSum/float64(period) + tr
			plusSum = plusSum - plusSum/float64(period) + plusDM
			minusSum = minusSum - minusSum/float64(period) + minusDM
		}

		if trSum == 0 {
			dxs = append(dxs, 0)
			continue
		}
		plusDI := 100 * plusSum / trSum
		minusDI := 100 * minusSum / trSum
		sum := plusDI + minusDI
		if sum == 0 {
			dxs = append(dxs, 0)
			continue
		}
		dxs = append(dxs, 100*math.Abs(plusDI-minusDI)/sum)
	}

	if len(dxs) < period {
		return 0
	}
	var out float64
	for _, dx := range dxs[:period] {
		out += dx
	}
	out /= float64(period)
	for _, dx := range dxs[period:] {
		out = (out*float64(period-1) + dx) / float64(period)
	}
	return out
}

// volumeTrend is the ratio of recent average volume to the prior window.
func volumeTrend(candles []models.Candle) float64 {
	const window = 10
	if len(candles) < 2*window {
		return 0
	}
	recent := candles[len(candles)-window:]
	prior := candles[len(candles)-2*window : len(candles)-window]

	var r, p float64
	for i := 0; i < window; i++ {
		r += recent[i].Volume
		p += prior[i].Volume
	}
	if p == 0 {
		return 0
	}
	return r / p
}

func classify(candles []models.Candle, adxVal float64) string {
	const window = 20
	if len(candles) < window {
		return models.RegimeRanging
	}
	recent := candles[len(candles)-window:]

	var sum float64
	for _, c := range recent {
		sum += c.Close
	}
	mean := sum / window
	var variance float64
	for _, c := range recent {
		d := c.Close - mean
		variance += d * d
	}
	// stddev as a fraction of price
	vol := math.Sqrt(variance/window) / mean

	switch {
	case vol > 0.03:
		return models.RegimeVolatile
	case adxVal >= 25:
		return models.RegimeTrending
	case vol < 0.005:
		return models.RegimeQuiet
	default:
		return models.RegimeRanging
	}
}
