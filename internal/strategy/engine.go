package strategy

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"

	"CycleTrader/internal/calculator"
	"CycleTrader/internal/config"
	"CycleTrader/internal/model"
)

// Intent is the position transition an evaluation asks its owner to perform.
type Intent int

const (
	IntentNone Intent = iota
	IntentOpen
	IntentClose
)

func (i Intent) String() string {
	switch i {
	case IntentOpen:
		return "open"
	case IntentClose:
		return "close"
	default:
		return "none"
	}
}

// Decision is the result of one evaluation: the signal to publish and the transition it implies.
type Decision struct {
	Signal   model.Signal
	Intent   Intent
	StopLoss bool
}

// signalNamespace scopes the deterministic signal IDs.
var signalNamespace = uuid.MustParse("3f6c2a0e-7d1b-4c55-9a8e-2b6f1e0c9d47")

// GenerateSignal evaluates the last bar of bars. It reports false when there are fewer bars
// than the Bollinger period. Bars after the evaluated one are never read, so callers replaying
// history pass bars[:i+1].
//
// When stage is present, entries additionally require an expansion stage.
func GenerateSignal(bars []model.PriceBar, symbol string, stage optional.Option[model.CycleStage], hasOpenPosition bool, s config.Strategy) (model.Signal, bool) {
	if len(bars) < s.BollingerPeriod {
		return model.Signal{}, false
	}

	last := len(bars) - 1
	bar := bars[last]
	ind, ok := calculator.CalculateIndicators(bars, last, s)
	if !ok {
		return model.Signal{}, false
	}

	var (
		typ    model.SignalType
		reason string
	)
	if hasOpenPosition {
		if shouldExit(bar, ind, s) {
			typ, reason = model.SignalSell, exitReason(bar, ind, s)
		} else {
			typ, reason = model.SignalHold, fmt.Sprintf("Holding position. RSI: %d", int(ind.RSI))
		}
	} else {
		if shouldEnter(bar, ind, stage, s) {
			typ, reason = model.SignalBuy, entryReason(bar, ind, stage, s)
		} else {
			typ, reason = model.SignalHold, fmt.Sprintf("No entry signal. RSI: %d", int(ind.RSI))
		}
	}

	return newSignal(bar, symbol, typ, bar.Close, ind, stage, reason), true
}

// Evaluate runs GenerateSignal against the caller's open position and resolves precedence:
// stop-loss, then indicator exit, then indicator entry, then hold. A stop-loss touch replaces the
// indicator signal with a SELL at the stop price. pos may be nil when flat.
func Evaluate(bars []model.PriceBar, symbol string, stage optional.Option[model.CycleStage], pos *model.Position, s config.Strategy) (Decision, bool) {
	open := pos != nil && pos.Status == model.PositionOpen

	sig, ok := GenerateSignal(bars, symbol, stage, open, s)
	if !ok {
		return Decision{}, false
	}

	switch {
	case open && ShouldStopOut(sig.Price, pos):
		bar := bars[len(bars)-1]
		stop := newSignal(bar, symbol, model.SignalSell, pos.StopLoss, sig.Indicators, stage,
			fmt.Sprintf("Stop loss triggered at $%.2f", pos.StopLoss))
		return Decision{Signal: stop, Intent: IntentClose, StopLoss: true}, true
	case open && sig.Type == model.SignalSell:
		return Decision{Signal: sig, Intent: IntentClose}, true
	case !open && sig.Type == model.SignalBuy:
		return Decision{Signal: sig, Intent: IntentOpen}, true
	default:
		return Decision{Signal: sig, Intent: IntentNone}, true
	}
}

// CalculatePositionSize deploys all of capital at price and fixes the stop stopLossPercent below it.
func CalculatePositionSize(capital, price, stopLossPercent float64) (shares, stopLoss float64) {
	shares = capital / price
	stopLoss = price * (1 - stopLossPercent)
	return shares, stopLoss
}

// ShouldStopOut reports whether currentPrice has touched the position's stop.
func ShouldStopOut(currentPrice float64, pos *model.Position) bool {
	return currentPrice <= pos.StopLoss
}

func shouldEnter(bar model.PriceBar, ind model.TechnicalIndicators, stage optional.Option[model.CycleStage], s config.Strategy) bool {
	basic := bar.Close < ind.BollingerLower && ind.IsRSIOversold(s.RSIOversold)
	if stage.IsSome() {
		return basic && stage.Unwrap() == model.StageExpansion
	}
	return basic
}

func shouldExit(bar model.PriceBar, ind model.TechnicalIndicators, s config.Strategy) bool {
	return bar.Close > ind.BollingerUpper || ind.IsRSIOverbought(s.RSIOverbought)
}

func newSignal(bar model.PriceBar, symbol string, typ model.SignalType, price float64, ind model.TechnicalIndicators, stage optional.Option[model.CycleStage], reason string) model.Signal {
	key := fmt.Sprintf("%s|%d|%s|%v|%s", symbol, bar.Timestamp.UnixNano(), typ, price, reason)
	return model.Signal{
		ID:         uuid.NewSHA1(signalNamespace, []byte(key)),
		Timestamp:  bar.Timestamp,
		Symbol:     symbol,
		Type:       typ,
		Price:      price,
		Indicators: ind,
		CycleStage: stage,
		Reason:     reason,
	}
}
