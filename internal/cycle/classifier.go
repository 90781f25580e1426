// Package cycle classifies macro-economic observations into business cycle stages.
package cycle

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"

	"CycleTrader/internal/model"
)

// DefaultSmoothingWindow is the number of trailing observations averaged for GDP.
const DefaultSmoothingWindow = 90

// Classification thresholds.
const (
	contractionGDP               = 0.0
	contractionUnemploymentTrend = 0.3

	peakGDPTrend   = -0.5
	peakInflation  = 3.5
	peakYieldCurve = -0.2

	recoveryGDPMin               = 0.0
	recoveryGDPMax               = 2.0
	recoveryUnemploymentMin      = 6.0
	recoveryUnemploymentTrendMax = -0.1
)

// Result is a classified series in date order.
type Result struct {
	Points []model.StagePoint
}

// Classify smooths data and assigns a stage to every observation. data must be sorted by date.
// A window below 1 uses DefaultSmoothingWindow.
func Classify(data []model.EconomicData, window int) Result {
	smoothed := Smooth(data, window)
	points := make([]model.StagePoint, len(smoothed))
	for i, d := range smoothed {
		points[i] = model.StagePoint{Date: d.Date, Stage: ClassifyPoint(d)}
	}
	return Result{Points: points}
}

// Current returns the stage of the latest observation.
func (r Result) Current() optional.Option[model.CycleStage] {
	if len(r.Points) == 0 {
		return optional.None[model.CycleStage]()
	}
	return optional.Some(r.Points[len(r.Points)-1].Stage)
}

// Transitions lists every date whose stage differs from the previous observation.
func (r Result) Transitions() []model.StageTransition {
	var out []model.StageTransition
	for i := 1; i < len(r.Points); i++ {
		prev, cur := r.Points[i-1], r.Points[i]
		if prev.Stage != cur.Stage {
			out = append(out, model.StageTransition{Date: cur.Date, FromStage: prev.Stage, ToStage: cur.Stage})
		}
	}
	return out
}

// StageAt returns the stage in effect at t: the latest observation dated at or before t.
func (r Result) StageAt(t time.Time) optional.Option[model.CycleStage] {
	idx := sort.Search(len(r.Points), func(i int) bool { return r.Points[i].Date.After(t) })
	if idx == 0 {
		return optional.None[model.CycleStage]()
	}
	return optional.Some(r.Points[idx-1].Stage)
}

// Smooth returns a copy of data where, from index window on, GDP growth is the mean of the
// trailing window+1 raw observations and the GDP and unemployment trends are the change between
// the first and last present values of that span. Missing values are skipped; a trend needs at
// least two present values.
func Smooth(data []model.EconomicData, window int) []model.EconomicData {
	if window < 1 {
		window = DefaultSmoothingWindow
	}
	out := make([]model.EconomicData, len(data))
	copy(out, data)

	for i := window; i < len(data); i++ {
		span := data[i-window : i+1]

		gdp := present(span, func(d model.EconomicData) optional.Option[float64] { return d.GDPGrowth })
		if len(gdp) > 0 {
			var sum float64
			for _, v := range gdp {
				sum += v
			}
			out[i].GDPGrowth = optional.Some(sum / float64(len(gdp)))
		}
		if len(gdp) > 1 {
			out[i].GDPTrend = optional.Some(gdp[len(gdp)-1] - gdp[0])
		}

		unemp := present(span, func(d model.EconomicData) optional.Option[float64] { return d.Unemployment })
		if len(unemp) > 1 {
			out[i].UnemploymentTrend = optional.Some(unemp[len(unemp)-1] - unemp[0])
		}
	}
	return out
}

func present(span []model.EconomicData, field func(model.EconomicData) optional.Option[float64]) []float64 {
	vals := make([]float64, 0, len(span))
	for _, d := range span {
		if v := field(d); v.IsSome() {
			vals = append(vals, v.Unwrap())
		}
	}
	return vals
}

// defaultMissingTrendInput treats a missing field as zero.
func defaultMissingTrendInput(v optional.Option[float64]) float64 {
	return v.TakeOr(0)
}

// ClassifyPoint applies the stage rules in order; the first match wins.
func ClassifyPoint(d model.EconomicData) model.CycleStage {
	gdp := defaultMissingTrendInput(d.GDPGrowth)
	gdpTrend := defaultMissingTrendInput(d.GDPTrend)
	unemployment := defaultMissingTrendInput(d.Unemployment)
	unemploymentTrend := defaultMissingTrendInput(d.UnemploymentTrend)
	inflation := defaultMissingTrendInput(d.Inflation)
	yieldCurve := defaultMissingTrendInput(d.YieldCurve)

	switch {
	case gdp < contractionGDP || unemploymentTrend > contractionUnemploymentTrend:
		return model.StageContraction
	case (gdpTrend < peakGDPTrend && inflation > peakInflation) || yieldCurve < peakYieldCurve:
		return model.StagePeak
	case gdp >= recoveryGDPMin && gdp < recoveryGDPMax &&
		unemployment > recoveryUnemploymentMin && unemploymentTrend < recoveryUnemploymentTrendMax:
		return model.StageRecovery
	case gdp >= 0 && unemploymentTrend <= 0:
		return model.StageExpansion
	default:
		// Positive growth with mildly rising unemployment matches no rule.
		return model.StageExpansion
	}
}
