package strategy

import (
	"fmt"
	"strings"

	"github.com/moznion/go-optional"

	"CycleTrader/internal/config"
	"CycleTrader/internal/model"
)

// ReasonSeparator joins the parts of a signal reason.
const ReasonSeparator = " • "

// entryReason lists, in order: band distance, RSI, cycle stage, squeeze.
func entryReason(bar model.PriceBar, ind model.TechnicalIndicators, stage optional.Option[model.CycleStage], s config.Strategy) string {
	var reasons []string

	if bar.Close < ind.BollingerLower {
		below := (ind.BollingerLower - bar.Close) / ind.BollingerLower * 100
		reasons = append(reasons, fmt.Sprintf("Price %.1f%% below lower BB", below))
	}
	if ind.IsRSIOversold(s.RSIOversold) {
		reasons = append(reasons, fmt.Sprintf("RSI oversold at %d", int(ind.RSI)))
	}
	if stage.IsSome() && stage.Unwrap() == model.StageExpansion {
		reasons = append(reasons, "Economy in expansion")
	}
	if ind.IsSqueeze() {
		reasons = append(reasons, "BB squeeze detected")
	}

	return strings.Join(reasons, ReasonSeparator)
}

// exitReason lists, in order: band distance, RSI.
func exitReason(bar model.PriceBar, ind model.TechnicalIndicators, s config.Strategy) string {
	var reasons []string

	if bar.Close > ind.BollingerUpper {
		above := (bar.Close - ind.BollingerUpper) / ind.BollingerUpper * 100
		reasons = append(reasons, fmt.Sprintf("Price %.1f%% above upper BB", above))
	}
	if ind.IsRSIOverbought(s.RSIOverbought) {
		reasons = append(reasons, fmt.Sprintf("RSI overbought at %d", int(ind.RSI)))
	}

	return strings.Join(reasons, ReasonSeparator)
}
