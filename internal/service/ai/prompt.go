package ai

import (
	"fmt"
	"strings"

	"PerpSignals/internal/domain/models"
)

const systemPrompt = `You are a disciplined crypto perpetual-futures analyst. ` +
	`You answer with exactly one JSON object and nothing else. Schema: ` +
	`{"direction":"LONG|SHORT","entry":number,"stopLoss":number,"takeProfit":number,` +
	`"confidence":number 0-100,"entryTrigger":"optional setup tag","reasoning":"one sentence",` +
	`"noTrade":bool}. ` +
	`For LONG the stop must sit below entry and the target above; for SHORT the reverse. ` +
	`If no setup is worth taking, answer {"noTrade":true}.`

const promptCandles = 30

func buildPrompt(symbol string, mc models.MarketContext, candles []models.Candle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Symbol: %s\n", symbol)
	fmt.Fprintf(&b, "Last price: %.6g\n", mc.LastPrice)
	fmt.Fprintf(&b, "Regime: %s, ADX %.1f, volume trend %.2f\n", mc.Regime, mc.ADX, mc.VolumeTrend)

	if n := len(candles); n > 0 {
		if n > promptCandles {
			candles = candles[n-promptCandles:]
		}
		b.WriteString("Recent candles (time open high low close volume):\n")
		for _, c := range candles {
			fmt.Fprintf(&b, "%s %.6g %.6g %.6g %.6g %.6g\n",
				c.OpenTime.Format("01-02 15:04"), c.Open, c.High, c.Low, c.Close, c.Volume)
		}
	}

	b.WriteString("Propose one trade or noTrade. JSON only.")
	return b.String()
}
