package position

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleTrader/internal/model"
	"CycleTrader/internal/strategy"
)

var t0 = time.Date(2025, 10, 1, 14, 0, 0, 0, time.UTC)

func signal(typ model.SignalType, price float64, at time.Time) model.Signal {
	return model.Signal{Timestamp: at, Symbol: "GPIX", Type: typ, Price: price}
}

func TestManager_OpenCloseCompoundsCapital(t *testing.T) {
	m, err := NewManager("", "GPIX", 10000, 0.02, nil)
	require.NoError(t, err)
	assert.Nil(t, m.Position())

	p, err := m.Open(signal(model.SignalBuy, 50, t0))
	require.NoError(t, err)
	assert.Equal(t, 200.0, p.Shares)
	assert.InDelta(t, 49.0, p.StopLoss, 1e-9)
	assert.Equal(t, model.PositionOpen, p.Status)

	_, err = m.Open(signal(model.SignalBuy, 51, t0.Add(time.Hour)))
	assert.ErrorIs(t, err, ErrPositionOpen)

	trade, err := m.Close(signal(model.SignalSell, 55, t0.Add(26*time.Hour)))
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, trade.ProfitLoss, 1e-9)
	assert.InDelta(t, 10.0, trade.ProfitLossPercent, 1e-9)
	assert.Equal(t, p.ID, trade.PositionID)
	assert.Equal(t, "1d 2h", trade.FormattedHoldingPeriod())
	assert.True(t, trade.IsWinner())

	assert.Nil(t, m.Position())
	assert.InDelta(t, 11000.0, m.Capital(), 1e-9)
	assert.Len(t, m.Trades(), 1)

	_, err = m.Close(signal(model.SignalSell, 55, t0))
	assert.ErrorIs(t, err, ErrNoPosition)

	p, err = m.Open(signal(model.SignalBuy, 55, t0.Add(48*time.Hour)))
	require.NoError(t, err)
	assert.InDelta(t, 200.0, p.Shares, 1e-9)
}

func TestManager_Apply(t *testing.T) {
	m, err := NewManager("", "GPIX", 10000, 0.02, nil)
	require.NoError(t, err)

	tr, err := m.Apply(strategy.Decision{Signal: signal(model.SignalHold, 50, t0), Intent: strategy.IntentNone})
	require.NoError(t, err)
	assert.Nil(t, tr)
	assert.Nil(t, m.Position())

	tr, err = m.Apply(strategy.Decision{Signal: signal(model.SignalBuy, 50, t0), Intent: strategy.IntentOpen})
	require.NoError(t, err)
	assert.Nil(t, tr)
	require.NotNil(t, m.Position())

	stop := signal(model.SignalSell, 49, t0.Add(time.Hour))
	tr, err = m.Apply(strategy.Decision{Signal: stop, Intent: strategy.IntentClose, StopLoss: true})
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.InDelta(t, -200.0, tr.ProfitLoss, 1e-9)
	assert.False(t, tr.IsWinner())
	assert.InDelta(t, 9800.0, m.Capital(), 1e-9)
}

func TestManager_PersistsAndResetsOnSymbolChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "position.json")

	m, err := NewManager(path, "GPIX", 10000, 0.02, nil)
	require.NoError(t, err)
	_, err = m.Open(signal(model.SignalBuy, 50, t0))
	require.NoError(t, err)
	assert.True(t, m.RecordSignal(signal(model.SignalBuy, 50, t0)))
	assert.False(t, m.RecordSignal(signal(model.SignalBuy, 50, t0.Add(time.Hour))))
	assert.True(t, m.RecordSignal(signal(model.SignalHold, 51, t0.Add(2*time.Hour))))

	reloaded, err := NewManager(path, "GPIX", 10000, 0.02, nil)
	require.NoError(t, err)
	p := reloaded.Position()
	require.NotNil(t, p)
	assert.Equal(t, 200.0, p.Shares)
	last, ok := reloaded.LastSignal()
	require.True(t, ok)
	assert.Equal(t, model.SignalHold, last.Type)

	switched, err := NewManager(path, "SPY", 10000, 0.02, nil)
	require.NoError(t, err)
	assert.Nil(t, switched.Position())
	assert.Equal(t, "SPY", switched.Symbol())
	_, ok = switched.LastSignal()
	assert.False(t, ok)
}

func TestManager_KeepsPersistedZeroCapital(t *testing.T) {
	path := filepath.Join(t.TempDir(), "position.json")
	require.NoError(t, SaveState(path, &State{Symbol: "GPIX", Capital: 0}))

	m, err := NewManager(path, "GPIX", 30000, 0.02, nil)
	require.NoError(t, err)
	assert.Zero(t, m.Capital())

	fresh, err := NewManager(filepath.Join(t.TempDir(), "absent.json"), "GPIX", 30000, 0.02, nil)
	require.NoError(t, err)
	assert.Equal(t, 30000.0, fresh.Capital())
}

func TestManager_Reset(t *testing.T) {
	m, err := NewManager("", "GPIX", 10000, 0.02, nil)
	require.NoError(t, err)
	_, err = m.Open(signal(model.SignalBuy, 50, t0))
	require.NoError(t, err)
	_, err = m.Close(signal(model.SignalSell, 60, t0.Add(time.Hour)))
	require.NoError(t, err)

	m.Reset("QQQ")
	assert.Equal(t, 10000.0, m.Capital())
	assert.Empty(t, m.Trades())
	assert.Equal(t, "QQQ", m.Symbol())
}
