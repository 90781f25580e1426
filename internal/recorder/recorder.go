package recorder

import "CycleTrader/internal/model"

// Recorder persists signals, trades and cycle history for later analysis.
type Recorder interface {
	// RecordSignal stores a signal once; recording the same signal ID again is a no-op.
	RecordSignal(sig model.Signal) error
	RecordTrade(t model.Trade) error
	// RecordStages and RecordTransitions take the full re-derived series and replace what was
	// stored, so rows dropped by a reclassification do not survive.
	RecordStages(points []model.StagePoint) error
	RecordTransitions(ts []model.StageTransition) error

	Trades(limit int) ([]model.Trade, error)
	StageHistory(limit int) ([]model.StagePoint, error)
	Transitions(limit int) ([]model.StageTransition, error)

	Close() error
}
