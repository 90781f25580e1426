package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Trade is the immutable record of a closed Position.
type Trade struct {
	ID                uuid.UUID `json:"id"`
	PositionID        uuid.UUID `json:"position_id"`
	Symbol            string    `json:"symbol"`
	EntryDate         time.Time `json:"entry_date"`
	EntryPrice        float64   `json:"entry_price"`
	ExitDate          time.Time `json:"exit_date"`
	ExitPrice         float64   `json:"exit_price"`
	Shares            float64   `json:"shares"`
	ProfitLoss        float64   `json:"profit_loss"`
	ProfitLossPercent float64   `json:"profit_loss_percent"`
	EntrySignal       Signal    `json:"entry_signal"`
	ExitSignal        Signal    `json:"exit_signal"`
}

// NewTrade builds a Trade from a closed position and its exit, computing P/L.
// The trade ID is derived from the position ID and the exit, so it is stable across replays.
func NewTrade(p *Position, exitDate time.Time, exitPrice float64, exitSignal Signal) Trade {
	key := fmt.Sprintf("%d|%v", exitDate.UnixNano(), exitPrice)
	return Trade{
		ID:                uuid.NewSHA1(p.ID, []byte(key)),
		PositionID:        p.ID,
		Symbol:            p.Symbol,
		EntryDate:         p.EntryDate,
		EntryPrice:        p.EntryPrice,
		ExitDate:          exitDate,
		ExitPrice:         exitPrice,
		Shares:            p.Shares,
		ProfitLoss:        p.ProfitLossAt(exitPrice),
		ProfitLossPercent: p.ProfitLossPercentAt(exitPrice),
		EntrySignal:       p.EntrySignal,
		ExitSignal:        exitSignal,
	}
}

func (t Trade) IsWinner() bool { return t.ProfitLoss > 0 }

func (t Trade) HoldingPeriod() time.Duration { return t.ExitDate.Sub(t.EntryDate) }

// FormattedHoldingPeriod renders the holding period as "3d 4h" or "5h".
func (t Trade) FormattedHoldingPeriod() string {
	hours := int(t.HoldingPeriod().Hours())
	days := hours / 24
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours%24)
	}
	return fmt.Sprintf("%dh", hours)
}
