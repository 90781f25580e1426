package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
)

// SignalType is the recommendation emitted for one evaluation.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// Signal is created once per evaluation and never mutated.
type Signal struct {
	ID         uuid.UUID                   `json:"id"`
	Timestamp  time.Time                   `json:"timestamp"`
	Symbol     string                      `json:"symbol"`
	Type       SignalType                  `json:"type"`
	Price      float64                     `json:"price"`
	Indicators TechnicalIndicators         `json:"indicators"`
	CycleStage optional.Option[CycleStage] `json:"cycle_stage"`
	Reason     string                      `json:"reason"`
}
