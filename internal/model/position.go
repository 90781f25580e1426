package model

import (
	"time"

	"github.com/google/uuid"
)

// PositionStatus is the lifecycle state of a Position.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "Open"
	PositionClosed PositionStatus = "Closed"
)

// Position is a single long position. StopLoss is fixed at entry.
type Position struct {
	ID          uuid.UUID      `json:"id"`
	Symbol      string         `json:"symbol"`
	EntryDate   time.Time      `json:"entry_date"`
	EntryPrice  float64        `json:"entry_price"`
	EntrySignal Signal         `json:"entry_signal"`
	Shares      float64        `json:"shares"`
	StopLoss    float64        `json:"stop_loss"`
	Status      PositionStatus `json:"status"`
	ExitDate    *time.Time     `json:"exit_date,omitempty"`
	ExitPrice   *float64       `json:"exit_price,omitempty"`
	ExitSignal  *Signal        `json:"exit_signal,omitempty"`
}

// EntryValue is the capital deployed at entry.
func (p *Position) EntryValue() float64 { return p.EntryPrice * p.Shares }

// ProfitLossAt is the P/L of the position marked at price.
func (p *Position) ProfitLossAt(price float64) float64 { return (price - p.EntryPrice) * p.Shares }

// ProfitLossPercentAt is the move from entry to price as a percentage of the entry price.
func (p *Position) ProfitLossPercentAt(price float64) float64 {
	return (price - p.EntryPrice) / p.EntryPrice * 100
}
