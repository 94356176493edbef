package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PerpSignals/internal/domain/models"
	"PerpSignals/internal/lifecycle"
	"PerpSignals/pkg/store"
)

// Store keys. The whole engine state lives in a handful of documents read and
// rewritten per cycle; last writer wins.
const (
	keyPortfolioGold   = "portfolio:gold"
	keyPortfolioSilver = "portfolio:silver"
	keyOptimizerConfig = "optimizer:config"
	keyConfirmPrefix   = "confirm:"
	keyShadowPrefix    = "shadow:sig:"
	keyShadowScores    = "shadow:scores"
)

// State loads and saves the engine's documents.
type State struct {
	store          store.Store
	initialBalance float64
}

// NewState creates the state accessor.
func NewState(st store.Store, initialBalance float64) *State {
	return &State{store: st, initialBalance: initialBalance}
}

func portfolioKey(tier models.Tier) string {
	if tier == models.TierGold {
		return keyPortfolioGold
	}
	return keyPortfolioSilver
}

// LoadPortfolio returns the tier's portfolio, creating a fresh one on first
// run.
func (s *State) LoadPortfolio(ctx context.Context, tier models.Tier) (*models.Portfolio, error) {
	var p models.Portfolio
	err := s.store.Get(ctx, portfolioKey(tier), &p)
	if errors.Is(err, store.ErrNotFound) {
		return lifecycle.NewPortfolio(tier, s.initialBalance), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load portfolio %s: %w", tier, err)
	}
	return &p, nil
}

// SavePortfolio persists the tier's portfolio without expiry.
func (s *State) SavePortfolio(ctx context.Context, p *models.Portfolio) error {
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.Set(ctx, portfolioKey(p.Tier), p, 0); err != nil {
		return fmt.Errorf("save portfolio %s: %w", p.Tier, err)
	}
	return nil
}

// LoadConfig returns the current optimizer config. A missing or unreadable
// document falls back to defaults so a cold store never blocks trading.
func (s *State) LoadConfig(ctx context.Context) *models.OptimizationConfig {
	var cfg models.OptimizationConfig
	if err := s.store.Get(ctx, keyOptimizerConfig, &cfg); err != nil {
		return models.DefaultOptimizationConfig()
	}
	cfg.Normalize()
	return &cfg
}

// SaveConfig persists the optimizer config.
func (s *State) SaveConfig(ctx context.Context, cfg *models.OptimizationConfig) error {
	if err := s.store.Set(ctx, keyOptimizerConfig, cfg, 0); err != nil {
		return fmt.Errorf("save optimizer config: %w", err)
	}
	return nil
}

// ResetConfig deletes the optimizer config so the next load starts from
// defaults.
func (s *State) ResetConfig(ctx context.Context) error {
	return s.store.Del(ctx, keyOptimizerConfig)
}

// Confirmation returns the fresh external confirmation for a symbol, or nil.
func (s *State) Confirmation(ctx context.Context, symbol string) *models.ConfirmRecord {
	var rec models.ConfirmRecord
	if err := s.store.Get(ctx, keyConfirmPrefix+symbol, &rec); err != nil {
		return nil
	}
	return &rec
}

// SaveConfirmation stores a time-boxed confirmation from the webhook.
func (s *State) SaveConfirmation(ctx context.Context, rec *models.ConfirmRecord, ttl time.Duration) error {
	if err := s.store.Set(ctx, keyConfirmPrefix+rec.Symbol, rec, ttl); err != nil {
		return fmt.Errorf("save confirmation %s: %w", rec.Symbol, err)
	}
	return nil
}
