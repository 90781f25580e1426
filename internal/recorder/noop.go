package recorder

import "CycleTrader/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(model.Signal) error                  { return nil }
func (n *NoopRecorder) RecordTrade(model.Trade) error                    { return nil }
func (n *NoopRecorder) RecordStages([]model.StagePoint) error            { return nil }
func (n *NoopRecorder) RecordTransitions([]model.StageTransition) error  { return nil }
func (n *NoopRecorder) Trades(int) ([]model.Trade, error)                { return nil, nil }
func (n *NoopRecorder) StageHistory(int) ([]model.StagePoint, error)     { return nil, nil }
func (n *NoopRecorder) Transitions(int) ([]model.StageTransition, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                     { return nil }
