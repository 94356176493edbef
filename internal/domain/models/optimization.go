package models

import (
	"time"

	"github.com/creasty/defaults"
)

// ConsensusTolerances are the wiggle bands within which two proposals'
// levels count as the same.
type ConsensusTolerances struct {
	EntryPct float64 `json:"entryPct" default:"2.0"`
	SLPct    float64 `json:"slPct" default:"3.0"`
	TPPct    float64 `json:"tpPct" default:"5.0"`
}

// PauseWindow is a timed trading pause set by the optimizer after a run of
// consecutive losses. It clears itself once expired.
type PauseWindow struct {
	Until  time.Time `json:"until,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

// Active reports whether the pause is still in effect at now.
func (p PauseWindow) Active(now time.Time) bool {
	return !p.Until.IsZero() && now.Before(p.Until)
}

// ParameterDelta records one threshold change made by an optimizer cycle.
type ParameterDelta struct {
	Name string  `json:"name"`
	Old  float64 `json:"old"`
	New  float64 `json:"new"`
}

// AuditEntry is one line of the optimizer's bounded audit log.
type AuditEntry struct {
	Timestamp      time.Time        `json:"timestamp"`
	TradesAnalyzed int              `json:"tradesAnalyzed"`
	WinRate        float64          `json:"winRate"`
	TotalPnl       float64          `json:"totalPnl"`
	Deltas         []ParameterDelta `json:"deltas,omitempty"`
}

// OptimizationConfig is the versioned threshold document. It is mutated only
// by the optimizer and read by the consensus matcher and the risk sizing
// calculator. Missing fields are filled with defaults on every load so the
// schema can grow without migrations.
type OptimizationConfig struct {
	Version   int       `json:"version" default:"1"`
	UpdatedAt time.Time `json:"updatedAt"`

	MinConfidence     float64 `json:"minConfidence" default:"65"`
	MinConfidenceGold float64 `json:"minConfidenceGold" default:"60"`
	MinRiskReward     float64 `json:"minRiskReward" default:"1.5"`
	MinRiskRewardGold float64 `json:"minRiskRewardGold" default:"1.2"`
	MinADX            float64 `json:"minAdx" default:"20"`
	CooldownHours     float64 `json:"cooldownHours" default:"4"`
	PriceOverridePct  float64 `json:"priceOverridePct" default:"2.0"`
	MaxAdjustmentRate float64 `json:"maxAdjustmentRate" default:"0.2"`

	Tolerances ConsensusTolerances `json:"tolerances"`

	// ModelWeights scale each model's vote; 1.0 is neutral (~50% win rate).
	ModelWeights map[string]float64 `json:"modelWeights"`

	BlacklistedSymbols []string `json:"blacklistedSymbols,omitempty"`
	BlockedRegimes     []string `json:"blockedRegimes,omitempty"`

	Pause PauseWindow `json:"pause"`

	TradesAnalyzed int          `json:"tradesAnalyzed"`
	LastReport     string       `json:"lastReport,omitempty"`
	AuditLog       []AuditEntry `json:"auditLog,omitempty"`
}

// DefaultOptimizationConfig builds the hard-coded initial document.
func DefaultOptimizationConfig() *OptimizationConfig {
	cfg := &OptimizationConfig{}
	cfg.Normalize()
	return cfg
}

// Normalize fills zero-valued fields with defaults. Applied once at the
// store boundary after every load.
func (c *OptimizationConfig) Normalize() {
	_ = defaults.Set(c)
	if c.ModelWeights == nil {
		c.ModelWeights = make(map[string]float64)
	}
	if len(c.BlockedRegimes) == 0 {
		// policy: never trade the chop
		c.BlockedRegimes = []string{RegimeVolatile}
	}
}

// ModelWeight returns the weight for a source, defaulting to neutral.
func (c *OptimizationConfig) ModelWeight(source string) float64 {
	if w, ok := c.ModelWeights[source]; ok && w > 0 {
		return w
	}
	return 1.0
}

// SymbolBlacklisted reports whether the optimizer has blacklisted symbol.
func (c *OptimizationConfig) SymbolBlacklisted(symbol string) bool {
	for _, s := range c.BlacklistedSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// RegimeBlocked reports whether trading is blocked in the given regime.
func (c *OptimizationConfig) RegimeBlocked(regime string) bool {
	for _, r := range c.BlockedRegimes {
		if r == regime {
			return true
		}
	}
	return false
}
