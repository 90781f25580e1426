package notifier

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"CycleTrader/internal/model"
)

func signalIcon(t model.SignalType) string {
	switch t {
	case model.SignalBuy:
		return "🟢"
	case model.SignalSell:
		return "🔴"
	default:
		return "⚪"
	}
}

// money renders v with two decimals, e.g. "$1598.36".
func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

// signedMoney renders v with an explicit sign, e.g. "+$12.00" or "-$3.50".
func signedMoney(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "+$" + d.StringFixed(2)
}

// FormatSignal formats a signal into a Telegram message.
func FormatSignal(sig model.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s %s</b> @ %s\n", signalIcon(sig.Type), sig.Type, sig.Symbol, money(sig.Price))
	fmt.Fprintf(&b, "%s\n\n", sig.Timestamp.Format("2006-01-02 15:04 MST"))

	ind := sig.Indicators
	fmt.Fprintf(&b, "BB: %.2f / %.2f / %.2f\n", ind.BollingerLower, ind.BollingerMiddle, ind.BollingerUpper)
	if ind.BollingerMiddle != 0 {
		fmt.Fprintf(&b, "BB width: %.2f%%\n", ind.BollingerBandwidth()*100)
	}
	fmt.Fprintf(&b, "RSI: %.1f\n", ind.RSI)
	if ind.IsSqueeze() {
		b.WriteString("Squeeze: on\n")
	}
	if sig.CycleStage.IsSome() {
		fmt.Fprintf(&b, "Cycle: %s\n", sig.CycleStage.Unwrap())
	}
	if sig.Reason != "" {
		fmt.Fprintf(&b, "\n%s", sig.Reason)
	}
	return b.String()
}

// FormatTrade formats a closed trade.
func FormatTrade(t model.Trade) string {
	icon := "✅"
	if !t.IsWinner() {
		icon = "❌"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>Closed %s</b>\n\n", icon, t.Symbol)
	fmt.Fprintf(&b, "Entry: %s (%s)\n", money(t.EntryPrice), t.EntryDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Exit: %s (%s)\n", money(t.ExitPrice), t.ExitDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Shares: %.4f\n", t.Shares)
	fmt.Fprintf(&b, "P/L: %s (%+.2f%%)\n", signedMoney(t.ProfitLoss), t.ProfitLossPercent)
	fmt.Fprintf(&b, "Held: %s", t.FormattedHoldingPeriod())
	if t.ExitSignal.Reason != "" {
		fmt.Fprintf(&b, "\n\n%s", t.ExitSignal.Reason)
	}
	return b.String()
}

// FormatPosition formats the open position marked at lastPrice, or the flat state.
func FormatPosition(p *model.Position, lastPrice, capital float64) string {
	var b strings.Builder
	b.WriteString("📦 <b>Position</b>\n\n")
	if p == nil {
		fmt.Fprintf(&b, "Flat. Capital: %s", money(capital))
		return b.String()
	}
	fmt.Fprintf(&b, "%s %.4f shares @ %s\n", p.Symbol, p.Shares, money(p.EntryPrice))
	fmt.Fprintf(&b, "Value at entry: %s\n", money(p.EntryValue()))
	fmt.Fprintf(&b, "Opened: %s\n", p.EntryDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Stop: %s\n", money(p.StopLoss))
	fmt.Fprintf(&b, "Last: %s\n", money(lastPrice))
	fmt.Fprintf(&b, "Unrealised: %s (%s%%)", signedMoney(p.ProfitLossAt(lastPrice)),
		decimal.NewFromFloat(p.ProfitLossPercentAt(lastPrice)).StringFixed(2))
	return b.String()
}

// FormatCycle formats the current stage and the most recent transitions.
func FormatCycle(stage model.CycleStage, recent []model.StageTransition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌐 <b>Economic cycle: %s</b>\n%s\n", stage, stage.Description())
	if len(recent) > 0 {
		b.WriteString("\nRecent changes:\n")
		for _, tr := range recent {
			fmt.Fprintf(&b, "  %s: %s → %s\n", tr.Date.Format("2006-01-02"), tr.FromStage, tr.ToStage)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatTransition formats a single stage change.
func FormatTransition(tr model.StageTransition) string {
	return fmt.Sprintf("🔄 <b>Cycle change</b> %s\n%s → %s\n%s",
		tr.Date.Format("2006-01-02"), tr.FromStage, tr.ToStage, tr.ToStage.Description())
}
