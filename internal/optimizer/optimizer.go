package optimizer

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"PerpSignals/internal/domain/models"
	"PerpSignals/pkg/logger"
)

const (
	// minimum closed trades before any adjustment is made
	minSampleSize = 10

	blacklistMinTrades = 8
	blacklistWinRate   = 0.30
	blockMinTrades     = 6
	blockWinRate       = 0.35

	pauseLossRun  = 5
	pauseDuration = 24 * time.Hour

	auditLogLimit = 50
)

// Optimizer recalibrates the threshold document from realized outcomes.
// Runs as a periodic batch job over the combined closed-trade history of
// both tiers; it mutates nothing it is not given and never errors on
// missing data.
type Optimizer struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Optimizer {
	return &Optimizer{log: log}
}

// SourceRecord is one model's shadow scorecard: resolved shadow signals
// supplement real trades when weighing a model.
type SourceRecord struct {
	Wins   int
	Losses int
}

// Run produces the next config from the current one and the closed-trade
// history. The input config is not mutated.
func (o *Optimizer) Run(cur *models.OptimizationConfig, trades []*models.Trade, shadow map[string]SourceRecord, now time.Time) *models.OptimizationConfig {
	next := cloneConfig(cur)
	next.UpdatedAt = now

	// expired pause clears itself
	if !next.Pause.Until.IsZero() && !next.Pause.Active(now) {
		next.Pause = models.PauseWindow{}
	}

	closed := closedOutcomes(trades)
	next.TradesAnalyzed = len(closed)

	if len(closed) < minSampleSize {
		next.LastReport = fmt.Sprintf("waiting for data: %d/%d closed trades", len(closed), minSampleSize)
		o.log.Info("optimizer waiting for sample", logger.Int("closed", len(closed)))
		return next
	}

	var deltas []models.ParameterDelta
	record := func(name string, old, val float64) {
		if old != val {
			deltas = append(deltas, models.ParameterDelta{Name: name, Old: old, New: val})
		}
	}

	rate := cur.MaxAdjustmentRate

	// per-model weight: win rate centered so 50% ~ 1.0, hard-bounded
	next.ModelWeights = modelWeights(closed, shadow, cur.ModelWeights)
	for src, w := range next.ModelWeights {
		if old := cur.ModelWeight(src); old != w {
			record("modelWeight."+src, old, w)
		}
	}

	if opt, ok := optimalConfidenceFloor(closed); ok {
		v := round2(BoundedAdjust(cur.MinConfidence, opt, rate, confidenceBounds))
		record("minConfidence", cur.MinConfidence, v)
		next.MinConfidence = v
	}

	if opt, ok := optimalRiskReward(closed); ok {
		v := round2(BoundedAdjust(cur.MinRiskReward, opt, rate, riskRewardBounds))
		record("minRiskReward", cur.MinRiskReward, v)
		next.MinRiskReward = v
	}

	next.BlacklistedSymbols = losingSymbols(closed)
	next.BlockedRegimes = blockedRegimes(closed)

	if run := tailLossRun(closed); run >= pauseLossRun && !next.Pause.Active(now) {
		next.Pause = models.PauseWindow{
			Until:  now.Add(pauseDuration),
			Reason: fmt.Sprintf("%d consecutive losses", run),
		}
	}

	winRate, totalPnl := aggregate(closed)
	next.LastReport = buildReport(len(closed), winRate, totalPnl, deltas, next)
	next.AuditLog = append(next.AuditLog, models.AuditEntry{
		Timestamp:      now,
		TradesAnalyzed: len(closed),
		WinRate:        winRate,
		TotalPnl:       totalPnl,
		Deltas:         deltas,
	})
	if n := len(next.AuditLog); n > auditLogLimit {
		next.AuditLog = next.AuditLog[n-auditLogLimit:]
	}

	o.log.Info("optimizer cycle complete",
		logger.Int("closed", len(closed)),
		logger.Float64("winRate", winRate),
		logger.Int("adjustments", len(deltas)))
	return next
}

func closedOutcomes(trades []*models.Trade) []*models.Trade {
	out := make([]*models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.IsOpen() || t.Result == models.ResultExpired {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClosedAt.Before(out[j].ClosedAt) })
	return out
}

// modelWeights derives each source's weight from its historical win rate:
// round(winRate*2, 2) so a coin-flip model sits at 1.0, hard-bounded.
// Shadow scorecards supplement real trades for sources with thin history.
func modelWeights(closed []*models.Trade, shadow map[string]SourceRecord, prior map[string]float64) map[string]float64 {
	wins := make(map[string]int)
	total := make(map[string]int)
	for _, t := range closed {
		for _, src := range t.AISources {
			total[src]++
			if t.Result == models.ResultWin {
				wins[src]++
			}
		}
	}
	for src, rec := range shadow {
		total[src] += rec.Wins + rec.Losses
		wins[src] += rec.Wins
	}

	out := make(map[string]float64, len(total))
	for src, w := range prior {
		out[src] = w
	}
	for src, n := range total {
		if n < 3 {
			continue
		}
		winRate := round2(float64(wins[src]) / float64(n))
		out[src] = clamp(round2(winRate*2), weightBounds)
	}
	return out
}

// optimalConfidenceFloor finds the lowest confidence decade still clearing a
// 50% win-rate bar with at least 3 samples.
func optimalConfidenceFloor(closed []*models.Trade) (float64, bool) {
	type bucket struct{ wins, total int }
	buckets := make(map[int]*bucket)
	for _, t := range closed {
		decade := int(t.Confidence/10) * 10
		b := buckets[decade]
		if b == nil {
			b = &bucket{}
			buckets[decade] = b
		}
		b.total++
		if t.Result == models.ResultWin {
			b.wins++
		}
	}

	decades := make([]int, 0, len(buckets))
	for d := range buckets {
		decades = append(decades, d)
	}
	sort.Ints(decades)

	for _, d := range decades {
		b := buckets[d]
		if b.total >= 3 && float64(b.wins)/float64(b.total) >= 0.5 {
			return float64(d), true
		}
	}
	return 0, false
}

// optimalRiskReward picks the RR bucket with the best expectancy.
func optimalRiskReward(closed []*models.Trade) (float64, bool) {
	edges := []float64{1.0, 1.5, 2.0, 2.5}
	type bucket struct {
		pnl   float64
		total int
	}
	buckets := make([]bucket, len(edges))

	for _, t := range closed {
		risk := math.Abs(t.Entry - t.OriginalOrCurrentStop())
		if risk == 0 {
			continue
		}
		rr := math.Abs(t.TakeProfit-t.Entry) / risk
		idx := 0
		for i, e := range edges {
			if rr >= e {
				idx = i
			}
		}
		buckets[idx].pnl += t.Pnl
		buckets[idx].total++
	}

	best, bestEdge := -1, math.Inf(-1)
	for i, b := range buckets {
		if b.total < 3 {
			continue
		}
		expectancy := b.pnl / float64(b.total)
		if expectancy > bestEdge {
			bestEdge = expectancy
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return edges[best], true
}

func losingSymbols(closed []*models.Trade) []string {
	wins := make(map[string]int)
	total := make(map[string]int)
	for _, t := range closed {
		total[t.Symbol]++
		if t.Result == models.ResultWin {
			wins[t.Symbol]++
		}
	}
	var out []string
	for sym, n := range total {
		if n >= blacklistMinTrades && float64(wins[sym])/float64(n) < blacklistWinRate {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

func blockedRegimes(closed []*models.Trade) []string {
	blocked := map[string]struct{}{models.RegimeVolatile: {}} // policy block
	wins := make(map[string]int)
	total := make(map[string]int)
	for _, t := range closed {
		if t.Regime == "" {
			continue
		}
		total[t.Regime]++
		if t.Result == models.ResultWin {
			wins[t.Regime]++
		}
	}
	for regime, n := range total {
		if n >= blockMinTrades && float64(wins[regime])/float64(n) < blockWinRate {
			blocked[regime] = struct{}{}
		}
	}
	out := make([]string, 0, len(blocked))
	for r := range blocked {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// tailLossRun counts consecutive losses at the end of the closed history.
func tailLossRun(closed []*models.Trade) int {
	run := 0
	for i := len(closed) - 1; i >= 0; i-- {
		if closed[i].Result != models.ResultLoss {
			break
		}
		run++
	}
	return run
}

func aggregate(closed []*models.Trade) (winRate, totalPnl float64) {
	wins := 0
	for _, t := range closed {
		totalPnl += t.Pnl
		if t.Result == models.ResultWin {
			wins++
		}
	}
	if len(closed) > 0 {
		winRate = float64(wins) / float64(len(closed))
	}
	return
}

func buildReport(n int, winRate, totalPnl float64, deltas []models.ParameterDelta, cfg *models.OptimizationConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "optimizer cycle: %d closed trades, win rate %.1f%%, total PnL %.2f\n", n, winRate*100, totalPnl)
	if len(deltas) == 0 {
		b.WriteString("no parameter changes this cycle\n")
	}
	for _, d := range deltas {
		fmt.Fprintf(&b, "  %s: %.2f -> %.2f\n", d.Name, d.Old, d.New)
	}
	if len(cfg.BlacklistedSymbols) > 0 {
		fmt.Fprintf(&b, "blacklisted symbols: %s\n", strings.Join(cfg.BlacklistedSymbols, ", "))
	}
	fmt.Fprintf(&b, "blocked regimes: %s\n", strings.Join(cfg.BlockedRegimes, ", "))
	if cfg.Pause.Until.After(time.Time{}) && cfg.Pause.Reason != "" {
		fmt.Fprintf(&b, "trading paused until %s (%s)\n", cfg.Pause.Until.Format(time.RFC3339), cfg.Pause.Reason)
	}
	return b.String()
}

func cloneConfig(c *models.OptimizationConfig) *models.OptimizationConfig {
	next := *c
	next.ModelWeights = make(map[string]float64, len(c.ModelWeights))
	for k, v := range c.ModelWeights {
		next.ModelWeights[k] = v
	}
	next.BlacklistedSymbols = append([]string(nil), c.BlacklistedSymbols...)
	next.BlockedRegimes = append([]string(nil), c.BlockedRegimes...)
	next.AuditLog = append([]models.AuditEntry(nil), c.AuditLog...)
	return &next
}
