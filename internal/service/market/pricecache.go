package market

import (
	"context"
	"time"

	"PerpSignals/internal/domain/models"
	drepo "PerpSignals/internal/domain/repository"
	"PerpSignals/pkg/cache"
)

const priceKeyPrefix = "price:"

// PriceCache keeps the latest websocket tick per symbol. Entries outlive
// only one monitor interval; stale entries simply miss.
type PriceCache struct {
	cache cache.Service
	ttl   time.Duration
}

// NewPriceCache creates the warm cache.
func NewPriceCache(c cache.Service, ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &PriceCache{cache: c, ttl: ttl}
}

// Put records a tick.
func (pc *PriceCache) Put(ctx context.Context, tick models.Tick) {
	_ = pc.cache.Set(ctx, priceKeyPrefix+tick.Symbol, tick.Price, pc.ttl)
}

// get returns a fresh price for a symbol.
func (pc *PriceCache) get(ctx context.Context, symbol string) (float64, bool) {
	v, err := pc.cache.Get(ctx, priceKeyPrefix+symbol)
	if err != nil {
		return 0, false
	}
	price, ok := v.(float64)
	return price, ok && price > 0
}

// CachedMarketData serves prices from the warm cache when every requested
// symbol is fresh, and falls back to REST otherwise. Candles always go to
// REST.
type CachedMarketData struct {
	inner drepo.MarketData
	warm  *PriceCache
}

// WithWarmCache decorates a MarketData with the tick cache.
func WithWarmCache(inner drepo.MarketData, warm *PriceCache) drepo.MarketData {
	return &CachedMarketData{inner: inner, warm: warm}
}

// GetPrices returns last prices, preferring fresh websocket ticks.
func (c *CachedMarketData) GetPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		price, ok := c.warm.get(ctx, s)
		if !ok {
			return c.inner.GetPrices(ctx, symbols)
		}
		out[s] = price
	}
	return out, nil
}

// GetCandles delegates to the REST client.
func (c *CachedMarketData) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	return c.inner.GetCandles(ctx, symbol, interval, limit)
}
