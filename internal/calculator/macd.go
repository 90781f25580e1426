package calculator

import "CycleTrader/internal/model"

// MACDPoint is one MACD reading.
type MACDPoint struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD computes EMA(fast)-EMA(slow) and its signal line. The signal line uses the same
// growing-window warm-up as EMA, so every index carries a value.
func MACD(bars []model.PriceBar, fast, slow, signal int) []MACDPoint {
	fastEMA := EMA(bars, fast).Values
	slowEMA := EMA(bars, slow).Values

	line := make([]float64, len(bars))
	for i := range bars {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := emaValues(line, clampPeriod(signal))

	out := make([]MACDPoint, len(bars))
	for i := range bars {
		out[i] = MACDPoint{
			MACD:      line[i],
			Signal:    signalLine[i],
			Histogram: line[i] - signalLine[i],
		}
	}
	return out
}
