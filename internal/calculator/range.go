package calculator

import (
	"math"

	"CycleTrader/internal/model"
)

// TrueRange returns the per-bar true range. The first bar uses high-low only.
func TrueRange(bars []model.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		if i == 0 {
			out[i] = b.High - b.Low
			continue
		}
		prevClose := bars[i-1].Close
		highLow := b.High - b.Low
		highClose := math.Abs(b.High - prevClose)
		lowClose := math.Abs(b.Low - prevClose)
		out[i] = math.Max(highLow, math.Max(highClose, lowClose))
	}
	return out
}

// ATR computes the average true range. Below period it is the mean of all true ranges so far;
// from period on it is Wilder's recursive smoothing.
func ATR(bars []model.PriceBar, period int) Series {
	period = clampPeriod(period)
	tr := TrueRange(bars)
	out := make([]float64, len(tr))
	running := 0.0
	for i := range tr {
		running += tr[i]
		switch {
		case i == 0:
			out[i] = tr[i]
		case i < period:
			out[i] = running / float64(i+1)
		default:
			out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
		}
	}
	return Series{Values: out}
}
