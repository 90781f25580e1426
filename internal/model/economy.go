package model

import (
	"time"

	"github.com/moznion/go-optional"
)

// CycleStage is a macro-economic regime.
type CycleStage string

const (
	StageExpansion   CycleStage = "Expansion"
	StagePeak        CycleStage = "Peak"
	StageContraction CycleStage = "Contraction"
	StageRecovery    CycleStage = "Recovery"
)

// Description is a short human-readable note on what the stage implies.
func (c CycleStage) Description() string {
	switch c {
	case StageExpansion:
		return "Economy is growing. Bullish signals favored."
	case StagePeak:
		return "Economy at peak. Caution advised."
	case StageContraction:
		return "Economy is contracting. Bearish signals favored."
	case StageRecovery:
		return "Economy is recovering. Early bullish signals."
	default:
		return ""
	}
}

// EconomicData is the macro snapshot for one date. Every field may be missing.
type EconomicData struct {
	Date              time.Time               `json:"date"`
	GDPGrowth         optional.Option[float64] `json:"gdp_growth"`
	Unemployment      optional.Option[float64] `json:"unemployment"`
	Inflation         optional.Option[float64] `json:"inflation"`
	YieldCurve        optional.Option[float64] `json:"yield_curve"`
	FedFunds          optional.Option[float64] `json:"fed_funds"`
	ConsumerSentiment optional.Option[float64] `json:"consumer_sentiment"`

	// Derived by the classifier's smoothing pass.
	GDPTrend          optional.Option[float64] `json:"gdp_trend"`
	UnemploymentTrend optional.Option[float64] `json:"unemployment_trend"`
}

// StagePoint is the classified stage for one date.
type StagePoint struct {
	Date  time.Time  `json:"date"`
	Stage CycleStage `json:"stage"`
}

// StageTransition records a change between adjacent classified dates.
type StageTransition struct {
	Date      time.Time  `json:"date"`
	FromStage CycleStage `json:"from_stage"`
	ToStage   CycleStage `json:"to_stage"`
}
