package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"PerpSignals/internal/domain/models"
	drepo "PerpSignals/internal/domain/repository"
	"PerpSignals/pkg/logger"

	"github.com/gorilla/websocket"
)

const defaultPingInterval = 30 * time.Second

// Stream implements a MarketStream backed by the Binance miniTicker feed.
type Stream struct {
	url     string
	symbols []string
	ping    time.Duration
	log     *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewStream creates a Binance MarketStream.
func NewStream(url string, symbols []string, ping time.Duration, log *logger.Logger) drepo.MarketStream {
	if ping <= 0 {
		ping = defaultPingInterval
	}
	return &Stream{
		url:     url,
		symbols: symbols,
		ping:    ping,
		log:     log,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	s.log.Info("market stream: connected", logger.String("url", s.url))
	return nil
}

// Subscribe subscribes to the configured symbols' miniTicker channels.
func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	conn, ok := s.conn, s.connected
	s.mu.Unlock()
	if conn == nil || !ok {
		return fmt.Errorf("stream not connected")
	}

	params := make([]string, len(s.symbols))
	for i, sym := range s.symbols {
		params[i] = strings.ToLower(sym) + "@miniTicker"
	}
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     1,
	}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	s.log.Info("market stream: subscribed", logger.Strings("symbols", s.symbols))
	return nil
}

type miniTicker struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"` // ms
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}

// Read streams Tick events and errors until ctx ends or the socket drops.
func (s *Stream) Read(ctx context.Context) (<-chan models.Tick, <-chan error) {
	ticks := make(chan models.Tick, 1024)
	errs := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(s.ping)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				conn := s.conn
				s.mu.Unlock()
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				errs <- fmt.Errorf("stream conn nil")
				return
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				s.markDisconnected()
				errs <- fmt.Errorf("stream read: %w", err)
				return
			}

			var m miniTicker
			if err := json.Unmarshal(b, &m); err != nil || m.EventType != "24hrMiniTicker" {
				// control frames and subscribe acks
				continue
			}
			price, err := strconv.ParseFloat(m.Close, 64)
			if err != nil {
				continue
			}

			tick := models.Tick{
				Symbol:    m.Symbol,
				Price:     price,
				Timestamp: time.UnixMilli(m.EventTime).UTC(),
			}
			select {
			case ticks <- tick:
			default:
				// drop on backpressure, the REST poll covers gaps
			}
		}
	}()

	return ticks, errs
}

// Close tears down the connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// IsConnected reports whether the socket is up.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Stream) markDisconnected() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
}
