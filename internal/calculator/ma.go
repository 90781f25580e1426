package calculator

import "CycleTrader/internal/model"

// SMA computes the simple moving average of closes. Indices below period-1 hold 0.
func SMA(bars []model.PriceBar, period int) Series {
	period = clampPeriod(period)
	closes := extractCloses(bars)
	out := make([]float64, len(closes))
	for i := range closes {
		if i < period-1 {
			continue
		}
		out[i] = sum(closes[i-period+1:i+1]) / float64(period)
	}
	return Series{Values: out, Warmup: period - 1}
}

// EMA computes the exponential moving average of closes.
//
// Below period the value is the mean of every close seen so far (a growing window),
// not a fixed-length seed. From period on it is the usual recursive smoothing with k = 2/(period+1).
// The warm-up values are genuine averages, so the series has no invalid prefix.
func EMA(bars []model.PriceBar, period int) Series {
	return Series{Values: emaValues(extractCloses(bars), clampPeriod(period))}
}

func emaValues(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	multiplier := 2.0 / float64(period+1)
	running := 0.0
	for i, v := range values {
		running += v
		switch {
		case i == 0:
			out[i] = v
		case i < period:
			out[i] = running / float64(i+1)
		default:
			out[i] = (v-out[i-1])*multiplier + out[i-1]
		}
	}
	return out
}
