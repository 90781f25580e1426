package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"CycleTrader/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Summary aggregates a trade ledger. Percentages are rounded to two places.
type Summary struct {
	Trades             int
	Wins               int
	Losses             int
	WinRate            decimal.Decimal
	TotalProfitLoss    decimal.Decimal
	InitialCapital     decimal.Decimal
	FinalCapital       decimal.Decimal
	ReturnPercent      decimal.Decimal
	MaxDrawdownPercent decimal.Decimal
}

// Summarize walks the ledger in order, compounding from initialCapital. Drawdown is measured on
// the equity after each closed trade.
func Summarize(trades []model.Trade, initialCapital float64) Summary {
	initial := decimal.NewFromFloat(initialCapital)
	s := Summary{Trades: len(trades), InitialCapital: initial}

	equity, peak := initial, initial
	maxDD := decimal.Zero
	for _, t := range trades {
		pl := decimal.NewFromFloat(t.ProfitLoss)
		s.TotalProfitLoss = s.TotalProfitLoss.Add(pl)
		if t.IsWinner() {
			s.Wins++
		} else {
			s.Losses++
		}

		equity = equity.Add(pl)
		if equity.GreaterThan(peak) {
			peak = equity
		}
		if peak.IsPositive() {
			if dd := peak.Sub(equity).Div(peak); dd.GreaterThan(maxDD) {
				maxDD = dd
			}
		}
	}

	s.FinalCapital = equity
	if s.Trades > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.Wins)).Div(decimal.NewFromInt(int64(s.Trades))).Mul(hundred).Round(2)
	}
	if initial.IsPositive() {
		s.ReturnPercent = s.TotalProfitLoss.Div(initial).Mul(hundred).Round(2)
	}
	s.MaxDrawdownPercent = maxDD.Mul(hundred).Round(2)
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("trades=%d wins=%d losses=%d win_rate=%s%% pnl=$%s final=$%s return=%s%% max_dd=%s%%",
		s.Trades, s.Wins, s.Losses, s.WinRate.StringFixed(2), s.TotalProfitLoss.StringFixed(2),
		s.FinalCapital.StringFixed(2), s.ReturnPercent.StringFixed(2), s.MaxDrawdownPercent.StringFixed(2))
}
