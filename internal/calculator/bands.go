package calculator

import (
	"math"

	"CycleTrader/internal/model"
)

// BollingerBands computes SMA ± stdDev × population standard deviation over period closes.
func BollingerBands(bars []model.PriceBar, period int, stdDev float64) Bands {
	period = clampPeriod(period)
	closes := extractCloses(bars)
	out := make([]Band, len(closes))
	for i := range closes {
		if i < period-1 {
			continue
		}
		window := closes[i-period+1 : i+1]
		sma := sum(window) / float64(period)

		variance := 0.0
		for _, c := range window {
			d := c - sma
			variance += d * d
		}
		std := math.Sqrt(variance / float64(period))

		out[i] = Band{
			Upper:  sma + std*stdDev,
			Middle: sma,
			Lower:  sma - std*stdDev,
		}
	}
	return Bands{Values: out, Warmup: period - 1}
}

// KeltnerChannel computes EMA(period) ± atrMultiplier × ATR(period).
func KeltnerChannel(bars []model.PriceBar, period int, atrMultiplier float64) Bands {
	period = clampPeriod(period)
	ema := EMA(bars, period).Values
	atr := ATR(bars, period).Values
	out := make([]Band, len(bars))
	for i := range bars {
		if i < period-1 {
			continue
		}
		out[i] = Band{
			Upper:  ema[i] + atr[i]*atrMultiplier,
			Middle: ema[i],
			Lower:  ema[i] - atr[i]*atrMultiplier,
		}
	}
	return Bands{Values: out, Warmup: period - 1}
}
