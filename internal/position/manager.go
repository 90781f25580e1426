package position

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"CycleTrader/internal/model"
	"CycleTrader/internal/strategy"
)

var (
	ErrPositionOpen = errors.New("position already open")
	ErrNoPosition   = errors.New("no open position")
)

// Manager owns the single long position of a session with concurrency safety.
// An empty file path keeps the state in memory only.
type Manager struct {
	mu              sync.Mutex
	state           *State
	filePath        string
	initialCapital  float64
	stopLossPercent float64
	log             *zap.Logger
}

// NewManager creates a Manager, loading state from disk when filePath is set.
// Persisted state for a different symbol is discarded.
func NewManager(filePath, symbol string, initialCapital, stopLossPercent float64, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	state := &State{}
	if filePath != "" {
		var err error
		if state, err = LoadState(filePath); err != nil {
			return nil, err
		}
	}

	m := &Manager{
		state:           state,
		filePath:        filePath,
		initialCapital:  initialCapital,
		stopLossPercent: stopLossPercent,
		log:             log,
	}
	if state.Symbol != symbol {
		if state.Symbol != "" && state.Symbol != symbol {
			log.Info("symbol changed, resetting session", zap.String("from", state.Symbol), zap.String("to", symbol))
		}
		m.resetLocked(symbol)
	}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// Apply performs the transition a strategy decision asks for. A trade is returned when a
// position was closed.
func (m *Manager) Apply(d strategy.Decision) (*model.Trade, error) {
	switch d.Intent {
	case strategy.IntentOpen:
		_, err := m.Open(d.Signal)
		return nil, err
	case strategy.IntentClose:
		t, err := m.Close(d.Signal)
		if err != nil {
			return nil, err
		}
		return &t, nil
	default:
		return nil, nil
	}
}

// Open sizes a position with the whole available capital at the signal price.
func (m *Manager) Open(sig model.Signal) (*model.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Open != nil {
		return nil, ErrPositionOpen
	}
	if sig.Price <= 0 {
		return nil, fmt.Errorf("open position: invalid price %v", sig.Price)
	}

	shares, stop := strategy.CalculatePositionSize(m.state.Capital, sig.Price, m.stopLossPercent)
	p := &model.Position{
		ID:          positionID(sig),
		Symbol:      sig.Symbol,
		EntryDate:   sig.Timestamp,
		EntryPrice:  sig.Price,
		EntrySignal: sig,
		Shares:      shares,
		StopLoss:    stop,
		Status:      model.PositionOpen,
	}
	m.state.Open = p

	m.persist()
	cp := *p
	return &cp, nil
}

// Close exits the open position at the signal price and adds the P/L to capital.
func (m *Manager) Close(sig model.Signal) (model.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.state.Open
	if p == nil {
		return model.Trade{}, ErrNoPosition
	}

	exitDate, exitPrice, exitSignal := sig.Timestamp, sig.Price, sig
	p.Status = model.PositionClosed
	p.ExitDate = &exitDate
	p.ExitPrice = &exitPrice
	p.ExitSignal = &exitSignal

	t := model.NewTrade(p, exitDate, exitPrice, sig)
	m.state.Capital += t.ProfitLoss
	m.state.Trades = append(m.state.Trades, t)
	m.state.Open = nil

	m.persist()
	return t, nil
}

// Position returns a copy of the open position, or nil when flat.
func (m *Manager) Position() *model.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Open == nil {
		return nil
	}
	cp := *m.state.Open
	return &cp
}

func (m *Manager) Capital() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Capital
}

func (m *Manager) Symbol() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Symbol
}

// Trades returns the closed trades, oldest first.
func (m *Manager) Trades() []model.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Trade(nil), m.state.Trades...)
}

// LastSignal returns the most recently published signal.
func (m *Manager) LastSignal() (model.Signal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.LastSignal == nil {
		return model.Signal{}, false
	}
	return *m.state.LastSignal, true
}

// RecordSignal stores sig as the latest signal and reports whether its type differs from the
// previous one. The first signal of a session always counts as a change.
func (m *Manager) RecordSignal(sig model.Signal) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := m.state.LastSignal == nil || m.state.LastSignal.Type != sig.Type
	m.state.LastSignal = &sig
	m.persist()
	return changed
}

// Reset discards the position, trade history and last signal and restores the initial capital.
func (m *Manager) Reset(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked(symbol)
	m.persist()
}

func (m *Manager) resetLocked(symbol string) {
	m.state.Symbol = symbol
	m.state.Capital = m.initialCapital
	m.state.Open = nil
	m.state.Trades = nil
	m.state.LastSignal = nil
}

func (m *Manager) persist() {
	if err := m.save(); err != nil {
		m.log.Error("failed to save position state", zap.Error(err))
	}
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveState(m.filePath, m.state)
}

// positionID derives the position ID from its entry signal so a replay yields the same IDs.
func positionID(entry model.Signal) uuid.UUID {
	key := fmt.Sprintf("%s|%d|%v", entry.Symbol, entry.Timestamp.UnixNano(), entry.Price)
	return uuid.NewSHA1(entry.ID, []byte(key))
}
