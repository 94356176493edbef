package consensus

import (
	"fmt"
	"time"

	"PerpSignals/internal/domain/models"
)

// Filter is the validation gate between a raw consensus candidate and an
// accepted signal. It consults live indicator state and the optimizer's
// derived blocklists.
type Filter struct {
	requireConfirm bool
}

func NewFilter(requireConfirm bool) *Filter {
	return &Filter{requireConfirm: requireConfirm}
}

// Validate returns nil when the signal may trade, or the rejection reason.
// confirm may be nil when no fresh webhook confirmation exists for the symbol.
func (f *Filter) Validate(sig models.ConsensusSignal, mc models.MarketContext, cfg *models.OptimizationConfig, confirm *models.ConfirmRecord, now time.Time) error {
	if cfg.Pause.Active(now) {
		return fmt.Errorf("trading paused until %s: %s", cfg.Pause.Until.Format(time.RFC3339), cfg.Pause.Reason)
	}
	if cfg.SymbolBlacklisted(sig.Symbol) {
		return fmt.Errorf("symbol %s is blacklisted", sig.Symbol)
	}
	if cfg.RegimeBlocked(mc.Regime) {
		return fmt.Errorf("regime %s is blocked", mc.Regime)
	}
	if mc.ADX > 0 && mc.ADX < cfg.MinADX {
		return fmt.Errorf("trend strength %.1f below floor %.1f", mc.ADX, cfg.MinADX)
	}
	if mc.VolumeTrend > 0 && mc.VolumeTrend < 0.5 {
		return fmt.Errorf("volume drying up (trend %.2f)", mc.VolumeTrend)
	}

	minConf := cfg.MinConfidence
	minRR := cfg.MinRiskReward
	if sig.Tier == models.TierGold {
		minConf = cfg.MinConfidenceGold
		minRR = cfg.MinRiskRewardGold
	}
	if sig.Confidence < minConf {
		return fmt.Errorf("confidence %.1f below floor %.1f", sig.Confidence, minConf)
	}
	if rr := sig.RiskReward(); rr < minRR {
		return fmt.Errorf("risk:reward %.2f below minimum %.2f", rr, minRR)
	}

	if f.requireConfirm {
		if confirm == nil {
			return fmt.Errorf("no indicator confirmation for %s", sig.Symbol)
		}
		want := "BUY"
		if sig.Direction == models.Short {
			want = "SELL"
		}
		if confirm.Signal != want {
			return fmt.Errorf("indicator confirmation is %s, signal wants %s", confirm.Signal, want)
		}
	}

	return nil
}
