package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleTrader/internal/config"
	"CycleTrader/internal/model"
)

var t0 = time.Date(2025, 10, 1, 13, 30, 0, 0, time.UTC)

func barsFromCloses(closes []float64) []model.PriceBar {
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{
			Timestamp: t0.Add(time.Duration(i) * 30 * time.Minute),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func wavyBars(n int) []model.PriceBar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 8*math.Sin(float64(i)/3) + 3*math.Cos(float64(i)/1.7) + float64(i%5)*0.4
	}
	bars := barsFromCloses(closes)
	for i := range bars {
		bars[i].High = bars[i].Close + 0.5 + float64(i%3)*0.3
		bars[i].Low = bars[i].Close - 0.7 - float64(i%4)*0.2
	}
	return bars
}

func constantBars(n int, price float64) []model.PriceBar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return barsFromCloses(closes)
}

func TestIndicatorLengthsMatchInput(t *testing.T) {
	for _, n := range []int{0, 1, 5, 40} {
		bars := wavyBars(n)
		for period := 1; period <= 30; period++ {
			assert.Equal(t, n, SMA(bars, period).Len(), "SMA n=%d period=%d", n, period)
			assert.Equal(t, n, EMA(bars, period).Len(), "EMA n=%d period=%d", n, period)
			assert.Equal(t, n, BollingerBands(bars, period, 2).Len(), "BB n=%d period=%d", n, period)
			assert.Equal(t, n, RSI(bars, period).Len(), "RSI n=%d period=%d", n, period)
			assert.Equal(t, n, ATR(bars, period).Len(), "ATR n=%d period=%d", n, period)
			assert.Equal(t, n, KeltnerChannel(bars, period, 2).Len(), "KC n=%d period=%d", n, period)
			assert.Len(t, MACD(bars, period, period+5, period), n)
		}
	}
}

func TestSMA(t *testing.T) {
	s := SMA(barsFromCloses([]float64{1, 2, 3, 4, 5}), 3)
	assert.Equal(t, []float64{0, 0, 2, 3, 4}, s.Values)
	assert.True(t, s.At(1).IsNone())
	assert.Equal(t, 2.0, s.At(2).Unwrap())
	assert.True(t, s.At(5).IsNone())
}

func TestEMA_GrowingWindowWarmup(t *testing.T) {
	s := EMA(barsFromCloses([]float64{1, 2, 3, 4, 5}), 3)
	// i<3 is the mean of everything so far, then k = 0.5.
	assert.Equal(t, []float64{1, 1.5, 2, 3, 4}, s.Values)
	assert.True(t, s.At(0).IsSome())
}

func TestBollinger_ConstantPrice(t *testing.T) {
	bb := BollingerBands(constantBars(25, 100), 20, 2)
	for i := 0; i < 19; i++ {
		assert.Equal(t, Band{}, bb.Values[i], "index %d", i)
		assert.True(t, bb.At(i).IsNone())
	}
	for i := 19; i < 25; i++ {
		assert.Equal(t, Band{Upper: 100, Middle: 100, Lower: 100}, bb.Values[i], "index %d", i)
	}
}

func TestBollinger_Ordering(t *testing.T) {
	bb := BollingerBands(wavyBars(120), 20, 2)
	for i := 19; i < bb.Len(); i++ {
		v := bb.Values[i]
		assert.GreaterOrEqual(t, v.Upper, v.Middle)
		assert.GreaterOrEqual(t, v.Middle, v.Lower)
	}
}

func TestBollinger_PopulationStdDev(t *testing.T) {
	// closes 2,4,4,4,5,5,7,9: mean 5, population std 2
	bb := BollingerBands(barsFromCloses([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 8, 2)
	assert.Equal(t, Band{Upper: 9, Middle: 5, Lower: 1}, bb.Values[7])
}

func TestRSI_StrictlyIncreasing(t *testing.T) {
	closes := make([]float64, 16)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := RSI(barsFromCloses(closes), 14)
	for i := 0; i < 14; i++ {
		assert.Equal(t, 50.0, rsi.Values[i], "index %d", i)
	}
	for i := 14; i < 16; i++ {
		assert.Equal(t, 100.0, rsi.Values[i], "index %d", i)
	}
	assert.True(t, rsi.At(13).IsNone())
	assert.True(t, rsi.At(14).IsSome())
}

func TestRSI_SimpleMeans(t *testing.T) {
	// deltas: +2, -1, +2, -1 -> over period 2 at i=2: gains (2,0)->1, losses (0,1)->0.5, rs=2
	rsi := RSI(barsFromCloses([]float64{10, 12, 11, 13, 12}), 2)
	assert.InDelta(t, 100-100/3.0, rsi.Values[2], 1e-12)
	// i=3: gains (0,2)->1, losses (1,0)->0.5
	assert.InDelta(t, 100-100/3.0, rsi.Values[3], 1e-12)
}

func TestRSI_Bounded(t *testing.T) {
	for _, period := range []int{2, 5, 14} {
		for i, v := range RSI(wavyBars(200), period).Values {
			assert.GreaterOrEqual(t, v, 0.0, "period %d index %d", period, i)
			assert.LessOrEqual(t, v, 100.0, "period %d index %d", period, i)
		}
	}
}

func TestATR(t *testing.T) {
	// constant close, high-low = 2 -> every true range is 2
	atr := ATR(constantBars(30, 50), 14)
	for i, v := range atr.Values {
		assert.Equal(t, 2.0, v, "index %d", i)
	}

	for _, v := range ATR(wavyBars(150), 14).Values {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestATR_Smoothing(t *testing.T) {
	bars := barsFromCloses([]float64{10, 10, 10, 14})
	// true ranges: 2, 2, 2, max(2, |15-10|, |13-10|) = 5
	atr := ATR(bars, 2)
	assert.Equal(t, []float64{2, 2, 2, 3.5}, atr.Values)
}

func TestKeltnerChannel(t *testing.T) {
	kc := KeltnerChannel(constantBars(25, 100), 20, 2)
	for i := 0; i < 19; i++ {
		assert.Equal(t, Band{}, kc.Values[i])
	}
	assert.Equal(t, Band{Upper: 104, Middle: 100, Lower: 96}, kc.Values[24])
}

func TestMACD(t *testing.T) {
	for _, p := range MACD(constantBars(40, 75), 12, 26, 9) {
		assert.Equal(t, MACDPoint{}, p)
	}

	points := MACD(wavyBars(80), 12, 26, 9)
	for _, p := range points {
		assert.Equal(t, p.MACD-p.Signal, p.Histogram)
	}
	// index 0 of every EMA is close[0], so the line starts at zero.
	assert.Equal(t, 0.0, points[0].MACD)
}

func TestNoLookahead(t *testing.T) {
	bars := wavyBars(90)
	full := struct {
		sma, ema, rsi, atr []float64
		bb, kc             []Band
		macd               []MACDPoint
	}{
		SMA(bars, 20).Values, EMA(bars, 20).Values, RSI(bars, 14).Values, ATR(bars, 14).Values,
		BollingerBands(bars, 20, 2).Values, KeltnerChannel(bars, 20, 2).Values, MACD(bars, 12, 26, 9),
	}

	for k := 0; k < len(bars); k++ {
		prefix := bars[:k+1]
		require.Equal(t, full.sma[k], SMA(prefix, 20).Values[k])
		require.Equal(t, full.ema[k], EMA(prefix, 20).Values[k])
		require.Equal(t, full.rsi[k], RSI(prefix, 14).Values[k])
		require.Equal(t, full.atr[k], ATR(prefix, 14).Values[k])
		require.Equal(t, full.bb[k], BollingerBands(prefix, 20, 2).Values[k])
		require.Equal(t, full.kc[k], KeltnerChannel(prefix, 20, 2).Values[k])
		require.Equal(t, full.macd[k], MACD(prefix, 12, 26, 9)[k])
	}
}

func TestCalculateIndicators(t *testing.T) {
	s := config.DefaultStrategy()

	_, ok := CalculateIndicators(wavyBars(19), 18, s)
	assert.False(t, ok, "fewer bars than the Bollinger period")

	bars := wavyBars(60)
	_, ok = CalculateIndicators(bars, 60, s)
	assert.False(t, ok)
	_, ok = CalculateIndicators(bars, -1, s)
	assert.False(t, ok)

	ind, ok := CalculateIndicators(bars, 59, s)
	require.True(t, ok)
	bb := BollingerBands(bars, 20, 2).Values[59]
	assert.Equal(t, bb.Upper, ind.BollingerUpper)
	assert.Equal(t, bb.Middle, ind.BollingerMiddle)
	assert.Equal(t, bb.Lower, ind.BollingerLower)
	assert.Equal(t, RSI(bars, 14).Values[59], ind.RSI)
	assert.Equal(t, ATR(bars, 14).Values[59], ind.ATR.Unwrap())
	assert.Equal(t, KeltnerChannel(bars, 20, 2).Values[59].Upper, ind.KeltnerUpper.Unwrap())
	assert.True(t, ind.MACD.IsSome())

	early, ok := CalculateIndicators(bars, 5, s)
	require.True(t, ok)
	assert.True(t, early.KeltnerUpper.IsNone())
	assert.False(t, early.IsSqueeze())
}

func TestPeriodClamp(t *testing.T) {
	bars := wavyBars(10)
	assert.Equal(t, extractCloses(bars), SMA(bars, 0).Values)
	assert.Equal(t, 10, RSI(bars, -3).Len())
}
