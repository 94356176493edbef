package consensus

import (
	"math"
	"sort"

	"PerpSignals/internal/domain/models"
	"PerpSignals/pkg/logger"
)

// Matcher finds agreement clusters among per-model proposals and emits
// consensus signals. It is stateless; thresholds come from the
// optimization config passed per call.
type Matcher struct {
	log *logger.Logger
}

func NewMatcher(log *logger.Logger) *Matcher {
	return &Matcher{log: log}
}

type groupKey struct {
	symbol    string
	direction models.Direction
}

// Match groups proposals by (symbol, direction), clusters the ones that agree
// within tolerance and emits one signal per group when at least two distinct
// models back it. Unusable proposals have already been dropped at parse time.
func (m *Matcher) Match(proposals []models.RawProposal, cfg *models.OptimizationConfig) []models.ConsensusSignal {
	groups := make(map[groupKey][]models.RawProposal)
	for _, p := range proposals {
		k := groupKey{symbol: p.Symbol, direction: p.Direction}
		groups[k] = append(groups[k], p)
	}

	var signals []models.ConsensusSignal
	for k, group := range groups {
		sig, ok := m.matchGroup(group, cfg)
		if !ok {
			continue
		}
		m.log.Debug("consensus formed",
			logger.String("symbol", k.symbol),
			logger.String("direction", string(k.direction)),
			logger.String("tier", string(sig.Tier)),
			logger.Strings("sources", sig.AISources))
		signals = append(signals, sig)
	}

	sort.Slice(signals, func(i, j int) bool {
		if signals[i].Tier != signals[j].Tier {
			return signals[i].Tier == models.TierGold
		}
		return signals[i].Confidence > signals[j].Confidence
	})
	return signals
}

// matchGroup clusters one (symbol, direction) group transitively and builds
// the signal from the best cluster.
func (m *Matcher) matchGroup(group []models.RawProposal, cfg *models.OptimizationConfig) (models.ConsensusSignal, bool) {
	if len(group) < 2 {
		return models.ConsensusSignal{}, false
	}

	tol := cfg.Tolerances

	// transitive closure over pairwise agreement
	parent := make([]int, len(group))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) { parent[find(a)] = find(b) }

	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			if group[i].Source == group[j].Source {
				continue
			}
			if proposalsAgree(group[i], group[j], tol) {
				union(i, j)
			}
		}
	}

	clusters := make(map[int][]models.RawProposal)
	for i := range group {
		root := find(i)
		clusters[root] = append(clusters[root], group[i])
	}

	var best []models.RawProposal
	bestSources := 0
	for _, cluster := range clusters {
		n := len(distinctSources(cluster))
		if n < 2 {
			continue
		}
		if n > bestSources || (n == bestSources && meanConfidence(cluster) > meanConfidence(best)) {
			best = cluster
			bestSources = n
		}
	}
	if bestSources < 2 {
		return models.ConsensusSignal{}, false
	}

	return buildSignal(best, cfg), true
}

// proposalsAgree checks entry/SL/TP wiggle tolerance and, when both carry an
// entry trigger tag, that the tags match.
func proposalsAgree(a, b models.RawProposal, tol models.ConsensusTolerances) bool {
	if !withinPct(a.Entry, b.Entry, tol.EntryPct) {
		return false
	}
	if !withinPct(a.StopLoss, b.StopLoss, tol.SLPct) {
		return false
	}
	if !withinPct(a.TakeProfit, b.TakeProfit, tol.TPPct) {
		return false
	}
	if a.EntryTrigger != "" && b.EntryTrigger != "" && a.EntryTrigger != b.EntryTrigger {
		return false
	}
	return true
}

func withinPct(a, b, pct float64) bool {
	ref := math.Max(math.Abs(a), math.Abs(b))
	if ref == 0 {
		return true
	}
	return math.Abs(a-b)/ref*100 <= pct
}

func buildSignal(cluster []models.RawProposal, cfg *models.OptimizationConfig) models.ConsensusSignal {
	sources := distinctSources(cluster)
	sort.Strings(sources)

	var entry, sl, tp float64
	var confSum, weightSum float64
	var reasons []string
	for _, p := range cluster {
		entry += p.Entry
		sl += p.StopLoss
		tp += p.TakeProfit
		w := cfg.ModelWeight(p.Source)
		confSum += p.Confidence * w
		weightSum += w
		reasons = append(reasons, p.Reasons...)
	}
	n := float64(len(cluster))

	confidence := confSum / weightSum
	confidence = math.Min(100, math.Max(0, confidence))

	tier := models.TierSilver
	if len(sources) >= 3 {
		tier = models.TierGold
	}

	return models.ConsensusSignal{
		Symbol:     cluster[0].Symbol,
		Direction:  cluster[0].Direction,
		Entry:      entry / n,
		StopLoss:   sl / n,
		TakeProfit: tp / n,
		Confidence: confidence,
		AISources:  sources,
		Tier:       tier,
		Reasons:    reasons,
	}
}

func distinctSources(cluster []models.RawProposal) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range cluster {
		if _, ok := seen[p.Source]; !ok {
			seen[p.Source] = struct{}{}
			out = append(out, p.Source)
		}
	}
	return out
}

func meanConfidence(cluster []models.RawProposal) float64 {
	if len(cluster) == 0 {
		return 0
	}
	var sum float64
	for _, p := range cluster {
		sum += p.Confidence
	}
	return sum / float64(len(cluster))
}
