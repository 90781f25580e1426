package calculator

import (
	"github.com/moznion/go-optional"

	"CycleTrader/internal/config"
	"CycleTrader/internal/model"
)

// Fixed periods for the snapshot extras that are not user-tunable.
const (
	SnapshotATRPeriod = 14
	MACDFastPeriod    = 12
	MACDSlowPeriod    = 26
	MACDSignalPeriod  = 9
)

// CalculateIndicators bundles Bollinger, RSI, Keltner, ATR(14) and MACD at index.
// It reports false when index is out of range or there are fewer bars than the Bollinger period.
// Every value at index depends only on bars[0..index].
func CalculateIndicators(bars []model.PriceBar, index int, s config.Strategy) (model.TechnicalIndicators, bool) {
	if index < 0 || index >= len(bars) {
		return model.TechnicalIndicators{}, false
	}
	if len(bars) < s.BollingerPeriod {
		return model.TechnicalIndicators{}, false
	}

	bb := BollingerBands(bars, s.BollingerPeriod, s.BollingerStdDev).Values[index]
	rsi := RSI(bars, s.RSIPeriod).Values[index]
	atr := ATR(bars, SnapshotATRPeriod).Values[index]
	macd := MACD(bars, MACDFastPeriod, MACDSlowPeriod, MACDSignalPeriod)[index]

	keltnerUpper, keltnerLower := optional.None[float64](), optional.None[float64]()
	if kc := KeltnerChannel(bars, s.KeltnerPeriod, s.KeltnerATRMultiplier).At(index); kc.IsSome() {
		keltnerUpper = optional.Some(kc.Unwrap().Upper)
		keltnerLower = optional.Some(kc.Unwrap().Lower)
	}

	return model.TechnicalIndicators{
		BollingerUpper:  bb.Upper,
		BollingerMiddle: bb.Middle,
		BollingerLower:  bb.Lower,
		RSI:             rsi,
		KeltnerUpper:    keltnerUpper,
		KeltnerLower:    keltnerLower,
		MACD:            optional.Some(macd.MACD),
		MACDSignal:      optional.Some(macd.Signal),
		MACDHistogram:   optional.Some(macd.Histogram),
		ATR:             optional.Some(atr),
	}, true
}
