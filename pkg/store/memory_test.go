package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "doc:a", testDoc{Name: "a", Count: 3}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got testDoc
	if err := s.Get(ctx, "doc:a", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "a" || got.Count != 3 {
		t.Fatalf("unexpected doc %+v", got)
	}
}

func TestMemoryStoreMiss(t *testing.T) {
	s := NewMemoryStore()
	var got testDoc
	if err := s.Get(context.Background(), "missing", &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "doc:ttl", testDoc{Name: "x"}, time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var got testDoc
	if err := s.Get(ctx, "doc:ttl", &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestMemoryStoreScan(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "signal:last:BTCUSDT", testDoc{}, 0)
	_ = s.Set(ctx, "signal:last:ETHUSDT", testDoc{}, 0)
	_ = s.Set(ctx, "portfolio:gold", testDoc{}, 0)

	keys, err := s.Scan(ctx, "signal:last:")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}
}
