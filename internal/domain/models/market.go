package models

import "time"

// Market regimes as classified by the indicator layer.
const (
	RegimeTrending = "TRENDING"
	RegimeRanging  = "RANGING"
	RegimeVolatile = "VOLATILE"
	RegimeQuiet    = "QUIET"
)

// Candle is one OHLCV bar.
type Candle struct {
	OpenTime time.Time `json:"openTime"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Tick is one live price sample from the websocket stream.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// MarketContext is the indicator state consulted by the consensus validation
// filter for one symbol.
type MarketContext struct {
	Symbol      string  `json:"symbol"`
	ADX         float64 `json:"adx"`         // trend strength
	VolumeTrend float64 `json:"volumeTrend"` // recent/ prior volume ratio
	Regime      string  `json:"regime"`
	LastPrice   float64 `json:"lastPrice"`
}
