package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"PerpSignals/internal/domain/models"
	drepo "PerpSignals/internal/domain/repository"
	phttp "PerpSignals/pkg/http"
	"PerpSignals/pkg/logger"
)

// Provider is one REST price/candle source tried in order.
type Provider struct {
	Name    string
	BaseURL string
}

// Client implements MarketData over an ordered list of REST providers.
// The first provider that answers wins; the rest are fallbacks.
type Client struct {
	providers []Provider
	http      *phttp.Client
	log       *logger.Logger
}

// New creates a MarketData client.
func New(providers []Provider, timeout time.Duration, log *logger.Logger) drepo.MarketData {
	return &Client{
		providers: providers,
		http:      phttp.NewClient(phttp.WithTimeout(timeout)),
		log:       log,
	}
}

type binanceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// GetPrices fetches last prices for the given symbols.
func (c *Client) GetPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	var lastErr error
	for _, p := range c.providers {
		prices, err := c.fetchPrices(ctx, p, symbols)
		if err != nil {
			c.log.Warn("market: provider failed",
				logger.String("provider", p.Name),
				logger.Error(err))
			lastErr = err
			continue
		}
		return prices, nil
	}
	return nil, fmt.Errorf("all price providers failed: %w", lastErr)
}

func (c *Client) fetchPrices(ctx context.Context, p Provider, symbols []string) (map[string]float64, error) {
	var tickers []binanceTicker
	err := c.http.SendAndParse(ctx, &phttp.RequestOptions{
		Method:      phttp.MethodGet,
		URL:         p.BaseURL + "/api/v3/ticker/price",
		QueryParams: map[string][]string{"symbols": {symbolsParam(symbols)}},
	}, &tickers)
	if err != nil {
		return nil, fmt.Errorf("%s prices: %w", p.Name, err)
	}

	prices := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		v, err := strconv.ParseFloat(t.Price, 64)
		if err != nil {
			continue
		}
		prices[t.Symbol] = v
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%s prices: empty response", p.Name)
	}
	return prices, nil
}

// GetCandles fetches recent klines for one symbol.
func (c *Client) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	var lastErr error
	for _, p := range c.providers {
		candles, err := c.fetchCandles(ctx, p, symbol, interval, limit)
		if err != nil {
			c.log.Warn("market: provider failed",
				logger.String("provider", p.Name),
				logger.String("symbol", symbol),
				logger.Error(err))
			lastErr = err
			continue
		}
		return candles, nil
	}
	return nil, fmt.Errorf("all candle providers failed: %w", lastErr)
}

func (c *Client) fetchCandles(ctx context.Context, p Provider, symbol, interval string, limit int) ([]models.Candle, error) {
	var raw [][]interface{}
	err := c.http.SendAndParse(ctx, &phttp.RequestOptions{
		Method: phttp.MethodGet,
		URL:    p.BaseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {interval},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("%s klines %s: %w", p.Name, symbol, err)
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, k := range raw {
		c, err := parseKline(k)
		if err != nil {
			return nil, fmt.Errorf("%s klines %s: %w", p.Name, symbol, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// Binance klines are positional arrays: openTime, open, high, low, close, volume, ...
func parseKline(k []interface{}) (models.Candle, error) {
	if len(k) < 6 {
		return models.Candle{}, fmt.Errorf("short kline row: %d fields", len(k))
	}
	ts, ok := k[0].(float64)
	if !ok {
		return models.Candle{}, fmt.Errorf("bad kline timestamp")
	}
	vals := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := k[i].(string)
		if !ok {
			return models.Candle{}, fmt.Errorf("bad kline field %d", i)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("bad kline field %d: %w", i, err)
		}
		vals[i-1] = v
	}
	return models.Candle{
		OpenTime: time.UnixMilli(int64(ts)).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}

func symbolsParam(symbols []string) string {
	quoted := make([]string, len(symbols))
	for i, s := range symbols {
		quoted[i] = `"` + s + `"`
	}
	return "[" + strings.Join(quoted, ",") + "]"
}
