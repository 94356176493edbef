package notify

import (
	"fmt"
	"strings"

	"PerpSignals/internal/domain/models"
)

// FormatSignal renders an accepted consensus signal for the chat.
func FormatSignal(sig *models.ConsensusSignal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s %s</b> [%s]\n", tierEmoji(sig.Tier), sig.Symbol, sig.Direction, sig.Tier)
	fmt.Fprintf(&b, "Entry %.6g | SL %.6g | TP %.6g\n", sig.Entry, sig.StopLoss, sig.TakeProfit)
	fmt.Fprintf(&b, "Confidence %.0f%% | R:R %.2f\n", sig.Confidence, sig.RiskReward())
	fmt.Fprintf(&b, "Sources: %s", strings.Join(sig.AISources, ", "))
	return b.String()
}

// FormatOpen renders a trade-opened event.
func FormatOpen(tier models.Tier, t *models.Trade) string {
	return fmt.Sprintf("▶️ <b>%s %s</b> opened [%s]\nEntry %.6g | SL %.6g | size %.2f",
		t.Symbol, t.Direction, tier, t.Entry, t.StopLoss, t.Size)
}

// FormatClose renders a close or partial-close event.
func FormatClose(tier models.Tier, t *models.Trade, ev models.TradeEvent) string {
	switch ev.Type {
	case models.EventPartialClose:
		return fmt.Sprintf("💰 <b>%s</b> partial close [%s]\n%s | banked %+.2f USD",
			t.Symbol, tier, ev.Detail, t.PartialPnlAccum)
	case models.EventTradeExpired:
		return fmt.Sprintf("⌛ <b>%s</b> expired unfilled [%s]", t.Symbol, tier)
	default:
		emoji := "✅"
		if t.Pnl < 0 {
			emoji = "❌"
		}
		return fmt.Sprintf("%s <b>%s</b> closed %s [%s]\nPnL %+.2f USD (%s)",
			emoji, t.Symbol, t.Result, tier, t.Pnl, t.ClosedBy)
	}
}

func tierEmoji(tier models.Tier) string {
	if tier == models.TierGold {
		return "🥇"
	}
	return "🥈"
}
