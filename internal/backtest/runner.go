// Package backtest replays the signal engine over historical bars.
package backtest

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"

	"CycleTrader/internal/config"
	"CycleTrader/internal/model"
	"CycleTrader/internal/position"
	"CycleTrader/internal/strategy"
)

// StageLookup returns the cycle stage in effect at t, if any.
type StageLookup func(t time.Time) optional.Option[model.CycleStage]

// Runner replays strategy.Evaluate over growing prefixes of a bar series.
type Runner struct {
	strategy config.Strategy
	stage    StageLookup
}

type Option func(*Runner)

// WithStageLookup gates entries on the macro stage at each bar's timestamp.
func WithStageLookup(f StageLookup) Option {
	return func(r *Runner) { r.stage = f }
}

func NewRunner(s config.Strategy, opts ...Option) *Runner {
	r := &Runner{strategy: s}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Result is the outcome of one replay.
type Result struct {
	Symbol         string
	Trades         []model.Trade
	Signals        []model.Signal
	InitialCapital float64
	FinalCapital   float64
	// Open is the position still held after the last bar.
	Open *model.Position
}

// Run evaluates each index from the Bollinger period on against bars[:i+1] and applies the
// resulting intent. Capital compounds across trades.
func (r *Runner) Run(symbol string, bars []model.PriceBar) (Result, error) {
	book, err := position.NewManager("", symbol, r.strategy.InitialCapital, r.strategy.StopLossPercent, nil)
	if err != nil {
		return Result{}, err
	}

	res := Result{Symbol: symbol, InitialCapital: r.strategy.InitialCapital}
	for i := r.strategy.BollingerPeriod; i < len(bars); i++ {
		stage := optional.None[model.CycleStage]()
		if r.stage != nil {
			stage = r.stage(bars[i].Timestamp)
		}

		d, ok := strategy.Evaluate(bars[:i+1], symbol, stage, book.Position(), r.strategy)
		if !ok {
			continue
		}
		if d.Intent != strategy.IntentNone {
			res.Signals = append(res.Signals, d.Signal)
		}
		if _, err := book.Apply(d); err != nil {
			return Result{}, fmt.Errorf("bar %d: %w", i, err)
		}
	}

	res.Trades = book.Trades()
	res.FinalCapital = book.Capital()
	res.Open = book.Position()
	return res, nil
}
