package calculator

import (
	"github.com/moznion/go-optional"

	"CycleTrader/internal/model"
)

// Series is an indicator array aligned one-to-one with the input bars.
// Values before Warmup hold the 0 sentinel and are not readings.
type Series struct {
	Values []float64
	Warmup int
}

// Len returns the number of values, always equal to the number of input bars.
func (s Series) Len() int { return len(s.Values) }

// At returns the value at i, or None when i is out of range or still warming up.
func (s Series) At(i int) optional.Option[float64] {
	if i < s.Warmup || i < 0 || i >= len(s.Values) {
		return optional.None[float64]()
	}
	return optional.Some(s.Values[i])
}

// Band is one point of an envelope indicator.
type Band struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bands is an envelope indicator aligned with the input bars. Points before Warmup are (0,0,0).
type Bands struct {
	Values []Band
	Warmup int
}

func (b Bands) Len() int { return len(b.Values) }

// At returns the band at i, or None when i is out of range or still warming up.
func (b Bands) At(i int) optional.Option[Band] {
	if i < b.Warmup || i < 0 || i >= len(b.Values) {
		return optional.None[Band]()
	}
	return optional.Some(b.Values[i])
}

func extractCloses(bars []model.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// sum adds values left to right starting from zero.
func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func clampPeriod(period int) int {
	if period < 1 {
		return 1
	}
	return period
}
