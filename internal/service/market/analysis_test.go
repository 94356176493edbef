package market

import (
	"testing"

	"PerpSignals/internal/domain/models"
)

func flatCandles(n int, price, volume float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Open:   price,
			High:   price * 1.001,
			Low:    price * 0.999,
			Close:  price,
			Volume: volume,
		}
	}
	return out
}

func TestAnalyzeEmpty(t *testing.T) {
	mc := Analyze(nil)
	if mc.Regime != models.RegimeRanging {
		t.Fatalf("expected RANGING for no candles, got %s", mc.Regime)
	}
	if mc.ADX != 0 || mc.LastPrice != 0 {
		t.Fatalf("expected zero context, got %+v", mc)
	}
}

func TestAnalyzeShortHistoryHasZeroADX(t *testing.T) {
	mc := Analyze(flatCandles(2*adxPeriod, 100, 50))
	if mc.ADX != 0 {
		t.Fatalf("expected ADX 0 with %d candles, got %v", 2*adxPeriod, mc.ADX)
	}
}

func TestAnalyzeQuietMarket(t *testing.T) {
	mc := Analyze(flatCandles(100, 100, 50))
	if mc.Regime != models.RegimeQuiet {
		t.Fatalf("expected QUIET for flat prices, got %s", mc.Regime)
	}
	if mc.LastPrice != 100 {
		t.Fatalf("expected last price 100, got %v", mc.LastPrice)
	}
}

func TestAnalyzeTrendingMarket(t *testing.T) {
	candles := make([]models.Candle, 100)
	price := 100.0
	for i := range candles {
		candles[i] = models.Candle{
			Open:   price,
			High:   price * 1.003,
			Low:    price * 0.999,
			Close:  price * 1.002,
			Volume: 50,
		}
		price *= 1.002
	}
	mc := Analyze(candles)
	if mc.ADX < 25 {
		t.Fatalf("expected strong ADX on a steady climb, got %v", mc.ADX)
	}
	if mc.Regime != models.RegimeTrending && mc.Regime != models.RegimeVolatile {
		t.Fatalf("expected TRENDING or VOLATILE, got %s", mc.Regime)
	}
}

func TestAnalyzeVolumeTrend(t *testing.T) {
	candles := flatCandles(100, 100, 50)
	for i := len(candles) - 10; i < len(candles); i++ {
		candles[i].Volume = 100
	}
	mc := Analyze(candles)
	if mc.VolumeTrend != 2 {
		t.Fatalf("expected volume trend 2.0, got %v", mc.VolumeTrend)
	}
}
