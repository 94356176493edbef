package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"PerpSignals/internal/domain/models"
	drepo "PerpSignals/internal/domain/repository"
)

// StatusUseCase serves the read-only API surface.
type StatusUseCase struct {
	state   *State
	stream  drepo.MarketStream
	started time.Time
}

// NewStatusUseCase creates the status service.
func NewStatusUseCase(state *State, stream drepo.MarketStream) *StatusUseCase {
	return &StatusUseCase{state: state, stream: stream, started: time.Now().UTC()}
}

// TierStatus is one portfolio's headline numbers.
type TierStatus struct {
	Balance    float64 `json:"balance"`
	OpenTrades int     `json:"openTrades"`
	TotalPnl   float64 `json:"totalPnl"`
	WinRate    float64 `json:"winRate"`
}

// Status is the engine health snapshot.
type Status struct {
	UptimeSeconds   float64               `json:"uptimeSeconds"`
	StreamConnected bool                  `json:"streamConnected"`
	Paused          bool                  `json:"paused"`
	Tiers           map[string]TierStatus `json:"tiers"`
}

// GetStatus returns the health snapshot.
func (uc *StatusUseCase) GetStatus(ctx context.Context) (*Status, error) {
	out := &Status{
		UptimeSeconds: time.Since(uc.started).Seconds(),
		Tiers:         make(map[string]TierStatus, 2),
	}
	if uc.stream != nil {
		out.StreamConnected = uc.stream.IsConnected()
	}
	out.Paused = uc.state.LoadConfig(ctx).Pause.Active(time.Now().UTC())

	for _, tier := range []models.Tier{models.TierGold, models.TierSilver} {
		p, err := uc.state.LoadPortfolio(ctx, tier)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		out.Tiers[string(tier)] = TierStatus{
			Balance:    p.Balance,
			OpenTrades: p.Stats.OpenTrades,
			TotalPnl:   p.Stats.TotalPnl,
			WinRate:    p.Stats.WinRate,
		}
	}
	return out, nil
}

// GetPortfolio returns a tier's full portfolio document.
func (uc *StatusUseCase) GetPortfolio(ctx context.Context, tier string) (*models.Portfolio, error) {
	t := models.Tier(strings.ToUpper(tier))
	switch t {
	case models.TierGold, models.TierSilver:
	default:
		return nil, fmt.Errorf("unknown tier %q", tier)
	}
	return uc.state.LoadPortfolio(ctx, t)
}

// GetOptimizerConfig returns the live parameter document.
func (uc *StatusUseCase) GetOptimizerConfig(ctx context.Context) *models.OptimizationConfig {
	return uc.state.LoadConfig(ctx)
}

// ResetOptimizerConfig drops the parameter document back to defaults.
func (uc *StatusUseCase) ResetOptimizerConfig(ctx context.Context) error {
	return uc.state.ResetConfig(ctx)
}
