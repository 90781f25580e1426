package model

import "github.com/moznion/go-optional"

// TechnicalIndicators is the indicator snapshot at one bar index.
type TechnicalIndicators struct {
	BollingerUpper  float64 `json:"bollinger_upper"`
	BollingerMiddle float64 `json:"bollinger_middle"`
	BollingerLower  float64 `json:"bollinger_lower"`

	RSI float64 `json:"rsi"`

	// Keltner Channel, used for squeeze detection.
	KeltnerUpper optional.Option[float64] `json:"keltner_upper"`
	KeltnerLower optional.Option[float64] `json:"keltner_lower"`

	MACD          optional.Option[float64] `json:"macd"`
	MACDSignal    optional.Option[float64] `json:"macd_signal"`
	MACDHistogram optional.Option[float64] `json:"macd_histogram"`

	ATR optional.Option[float64] `json:"atr"`
}

// BollingerBandwidth is (upper-lower)/middle.
func (t TechnicalIndicators) BollingerBandwidth() float64 {
	return (t.BollingerUpper - t.BollingerLower) / t.BollingerMiddle
}

func (t TechnicalIndicators) IsRSIOversold(threshold float64) bool   { return t.RSI < threshold }
func (t TechnicalIndicators) IsRSIOverbought(threshold float64) bool { return t.RSI > threshold }

// IsSqueeze reports whether the Bollinger Bands sit entirely inside the Keltner Channel.
// It is false when the Keltner values are absent.
func (t TechnicalIndicators) IsSqueeze() bool {
	if t.KeltnerUpper.IsNone() || t.KeltnerLower.IsNone() {
		return false
	}
	return t.BollingerUpper < t.KeltnerUpper.Unwrap() && t.BollingerLower > t.KeltnerLower.Unwrap()
}
