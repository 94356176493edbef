package consensus

import (
	"testing"
	"time"

	"PerpSignals/internal/domain/models"
	"PerpSignals/pkg/logger"
)

func proposal(source string, entry, sl, tp, conf float64) models.RawProposal {
	p, err := models.NewRawProposal(source, "BTCUSDT", "LONG", conf, entry, sl, tp, "", nil)
	if err != nil {
		panic(err)
	}
	return p
}

func TestMatchRequiresTwoDistinctSources(t *testing.T) {
	m := NewMatcher(logger.Nop())
	cfg := models.DefaultOptimizationConfig()

	sigs := m.Match([]models.RawProposal{proposal("gpt", 100, 98, 106, 70)}, cfg)
	if len(sigs) != 0 {
		t.Fatalf("single source must not form consensus, got %d signals", len(sigs))
	}

	// same source twice still counts as one
	sigs = m.Match([]models.RawProposal{
		proposal("gpt", 100, 98, 106, 70),
		proposal("gpt", 100.5, 98.2, 106.5, 72),
	}, cfg)
	if len(sigs) != 0 {
		t.Fatalf("duplicate source must not form consensus, got %d signals", len(sigs))
	}
}

func TestMatchSilverTier(t *testing.T) {
	m := NewMatcher(logger.Nop())
	cfg := models.DefaultOptimizationConfig()

	sigs := m.Match([]models.RawProposal{
		proposal("gpt", 100, 98, 106, 70),
		proposal("claude", 101, 98.5, 107, 80),
	}, cfg)
	if len(sigs) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(sigs))
	}
	sig := sigs[0]
	if sig.Tier != models.TierSilver {
		t.Fatalf("expected SILVER tier, got %s", sig.Tier)
	}
	if len(sig.AISources) != 2 {
		t.Fatalf("expected 2 sources, got %v", sig.AISources)
	}
	if sig.Entry != 100.5 {
		t.Fatalf("expected mean entry 100.5, got %v", sig.Entry)
	}
	if sig.Confidence != 75 {
		t.Fatalf("expected mean confidence 75, got %v", sig.Confidence)
	}
}

func TestMatchGoldTier(t *testing.T) {
	m := NewMatcher(logger.Nop())
	cfg := models.DefaultOptimizationConfig()

	sigs := m.Match([]models.RawProposal{
		proposal("gpt", 100, 98, 106, 70),
		proposal("claude", 101, 98.5, 107, 80),
		proposal("gemini", 100.2, 97.8, 106.2, 60),
	}, cfg)
	if len(sigs) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(sigs))
	}
	if sigs[0].Tier != models.TierGold {
		t.Fatalf("expected GOLD tier, got %s", sigs[0].Tier)
	}
}

func TestMatchRejectsOutOfTolerance(t *testing.T) {
	m := NewMatcher(logger.Nop())
	cfg := models.DefaultOptimizationConfig()

	// entries 100 vs 110 are far outside the 2% band
	sigs := m.Match([]models.RawProposal{
		proposal("gpt", 100, 98, 106, 70),
		proposal("claude", 110, 108, 116, 80),
	}, cfg)
	if len(sigs) != 0 {
		t.Fatalf("out-of-tolerance proposals must not agree, got %d signals", len(sigs))
	}
}

func TestMatchEntryTriggerMismatch(t *testing.T) {
	m := NewMatcher(logger.Nop())
	cfg := models.DefaultOptimizationConfig()

	a, _ := models.NewRawProposal("gpt", "BTCUSDT", "LONG", 70, 100, 98, 106, "breakout", nil)
	b, _ := models.NewRawProposal("claude", "BTCUSDT", "LONG", 80, 100.5, 98.2, 106.4, "pullback", nil)
	if len(m.Match([]models.RawProposal{a, b}, cfg)) != 0 {
		t.Fatal("mismatched entry triggers must not agree")
	}

	// one side missing a trigger is compatible
	c, _ := models.NewRawProposal("claude", "BTCUSDT", "LONG", 80, 100.5, 98.2, 106.4, "", nil)
	if len(m.Match([]models.RawProposal{a, c}, cfg)) != 1 {
		t.Fatal("missing trigger on one side should still agree")
	}
}

func TestMatchOppositeDirectionsNeverAgree(t *testing.T) {
	m := NewMatcher(logger.Nop())
	cfg := models.DefaultOptimizationConfig()

	long, _ := models.NewRawProposal("gpt", "BTCUSDT", "LONG", 70, 100, 98, 106, "", nil)
	short, _ := models.NewRawProposal("claude", "BTCUSDT", "SHORT", 80, 100, 102, 94, "", nil)
	if len(m.Match([]models.RawProposal{long, short}, cfg)) != 0 {
		t.Fatal("opposite directions grouped together")
	}
}

func TestFilterRejections(t *testing.T) {
	cfg := models.DefaultOptimizationConfig()
	f := NewFilter(false)
	now := time.Now()

	sig := models.ConsensusSignal{
		Symbol: "BTCUSDT", Direction: models.Long,
		Entry: 100, StopLoss: 98, TakeProfit: 106,
		Confidence: 80, Tier: models.TierSilver,
	}
	mc := models.MarketContext{Symbol: "BTCUSDT", ADX: 30, VolumeTrend: 1.1, Regime: models.RegimeTrending}

	if err := f.Validate(sig, mc, cfg, nil, now); err != nil {
		t.Fatalf("healthy signal rejected: %v", err)
	}

	weak := sig
	weak.Confidence = 10
	if err := f.Validate(weak, mc, cfg, nil, now); err == nil {
		t.Fatal("low confidence passed the filter")
	}

	badRR := sig
	badRR.TakeProfit = 101 // RR = 0.5
	if err := f.Validate(badRR, mc, cfg, nil, now); err == nil {
		t.Fatal("low risk:reward passed the filter")
	}

	blocked := mc
	blocked.Regime = models.RegimeVolatile
	if err := f.Validate(sig, blocked, cfg, nil, now); err == nil {
		t.Fatal("blocked regime passed the filter")
	}

	cfg.BlacklistedSymbols = []string{"BTCUSDT"}
	if err := f.Validate(sig, mc, cfg, nil, now); err == nil {
		t.Fatal("blacklisted symbol passed the filter")
	}
	cfg.BlacklistedSymbols = nil

	cfg.Pause = models.PauseWindow{Until: now.Add(time.Hour), Reason: "loss streak"}
	if err := f.Validate(sig, mc, cfg, nil, now); err == nil {
		t.Fatal("active pause window passed the filter")
	}
}

func TestFilterConfirmRequired(t *testing.T) {
	cfg := models.DefaultOptimizationConfig()
	f := NewFilter(true)
	now := time.Now()

	sig := models.ConsensusSignal{
		Symbol: "BTCUSDT", Direction: models.Long,
		Entry: 100, StopLoss: 98, TakeProfit: 106,
		Confidence: 80, Tier: models.TierSilver,
	}
	mc := models.MarketContext{ADX: 30, VolumeTrend: 1.0, Regime: models.RegimeTrending}

	if err := f.Validate(sig, mc, cfg, nil, now); err == nil {
		t.Fatal("missing confirmation passed the filter")
	}
	if err := f.Validate(sig, mc, cfg, &models.ConfirmRecord{Signal: "SELL"}, now); err == nil {
		t.Fatal("opposite confirmation passed the filter")
	}
	if err := f.Validate(sig, mc, cfg, &models.ConfirmRecord{Signal: "BUY"}, now); err != nil {
		t.Fatalf("matching confirmation rejected: %v", err)
	}
}
