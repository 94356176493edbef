package usecase

import (
	"context"
	"testing"
	"time"

	"PerpSignals/internal/domain/models"
	"PerpSignals/pkg/store"
)

func TestLoadPortfolioCreatesFreshOnFirstRun(t *testing.T) {
	s := NewState(store.NewMemoryStore(), 500)
	ctx := context.Background()

	p, err := s.LoadPortfolio(ctx, models.TierGold)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Tier != models.TierGold || p.Balance != 500 {
		t.Fatalf("unexpected fresh portfolio %+v", p)
	}
	if len(p.Trades) != 0 {
		t.Fatalf("fresh portfolio must have no trades")
	}
}

func TestPortfolioRoundTrip(t *testing.T) {
	s := NewState(store.NewMemoryStore(), 500)
	ctx := context.Background()

	p, _ := s.LoadPortfolio(ctx, models.TierSilver)
	p.Balance = 612.5
	if err := s.SavePortfolio(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.LoadPortfolio(ctx, models.TierSilver)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Balance != 612.5 {
		t.Fatalf("expected balance 612.5, got %v", got.Balance)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("save must stamp UpdatedAt")
	}
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	s := NewState(store.NewMemoryStore(), 500)
	cfg := s.LoadConfig(context.Background())
	def := models.DefaultOptimizationConfig()
	if cfg.MinConfidence != def.MinConfidence {
		t.Fatalf("expected default config on cold store, got %+v", cfg)
	}
}

func TestConfigResetRestoresDefaults(t *testing.T) {
	s := NewState(store.NewMemoryStore(), 500)
	ctx := context.Background()

	cfg := s.LoadConfig(ctx)
	cfg.MinConfidence = 80
	if err := s.SaveConfig(ctx, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := s.LoadConfig(ctx); got.MinConfidence != 80 {
		t.Fatalf("expected persisted MinConfidence 80, got %v", got.MinConfidence)
	}

	if err := s.ResetConfig(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	def := models.DefaultOptimizationConfig()
	if got := s.LoadConfig(ctx); got.MinConfidence != def.MinConfidence {
		t.Fatalf("expected defaults after reset, got %v", got.MinConfidence)
	}
}

func TestConfirmationExpiry(t *testing.T) {
	s := NewState(store.NewMemoryStore(), 500)
	ctx := context.Background()

	rec := &models.ConfirmRecord{Symbol: "BTCUSDT", Signal: "BUY", StoredAt: time.Now().UTC()}
	if err := s.SaveConfirmation(ctx, rec, 20*time.Millisecond); err != nil {
		t.Fatalf("save: %v", err)
	}

	if got := s.Confirmation(ctx, "BTCUSDT"); got == nil || got.Signal != "BUY" {
		t.Fatalf("expected stored confirmation, got %+v", got)
	}
	if got := s.Confirmation(ctx, "ETHUSDT"); got != nil {
		t.Fatalf("expected nil for other symbol, got %+v", got)
	}

	time.Sleep(30 * time.Millisecond)
	if got := s.Confirmation(ctx, "BTCUSDT"); got != nil {
		t.Fatalf("expected expired confirmation to be gone, got %+v", got)
	}
}
