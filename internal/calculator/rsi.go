package calculator

import "CycleTrader/internal/model"

// RSI computes the relative strength index of closes.
//
// Index 0 and every index below period read 50 (neutral). From period on, the average gain and loss
// are plain means of the last period close-to-close deltas; there is no Wilder smoothing.
// A window with no losses reads 100.
func RSI(bars []model.PriceBar, period int) Series {
	period = clampPeriod(period)
	out := make([]float64, len(bars))
	gains := make([]float64, 0, len(bars))
	losses := make([]float64, 0, len(bars))

	for i := range bars {
		if i == 0 {
			out[i] = 50
			continue
		}

		change := bars[i].Close - bars[i-1].Close
		gains = append(gains, max(change, 0))
		losses = append(losses, max(-change, 0))

		if i < period {
			out[i] = 50
			continue
		}

		avgGain := sum(gains[len(gains)-period:]) / float64(period)
		avgLoss := sum(losses[len(losses)-period:]) / float64(period)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return Series{Values: out, Warmup: period}
}
