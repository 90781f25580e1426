package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleTrader/internal/metrics"
	"CycleTrader/internal/model"
	"CycleTrader/internal/recorder"
)

type fakeSession struct {
	sig   *model.Signal
	pos   *model.Position
	stage optional.Option[model.CycleStage]
}

func (f *fakeSession) Symbol() string                                { return "GPIX" }
func (f *fakeSession) Capital() float64                              { return 30000 }
func (f *fakeSession) LastPrice() float64                            { return 51 }
func (f *fakeSession) Position() *model.Position                     { return f.pos }
func (f *fakeSession) CycleStage() optional.Option[model.CycleStage] { return f.stage }
func (f *fakeSession) LatestSignal() (model.Signal, bool) {
	if f.sig == nil {
		return model.Signal{}, false
	}
	return *f.sig, true
}

type fakeRecorder struct {
	recorder.NoopRecorder
	trades []model.Trade
	limit  int
}

func (f *fakeRecorder) Trades(limit int) ([]model.Trade, error) {
	f.limit = limit
	return f.trades, nil
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestRouter_Empty(t *testing.T) {
	r := NewRouter(&fakeSession{stage: optional.None[model.CycleStage]()}, recorder.NewNoopRecorder(), nil)

	code, body := get(t, r, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	_, body = get(t, r, "/signals/latest")
	assert.Nil(t, body["signal"])

	_, body = get(t, r, "/position")
	assert.Nil(t, body["position"])
	assert.Equal(t, 30000.0, body["capital"])

	_, body = get(t, r, "/cycle")
	assert.Nil(t, body["stage"])
	assert.Equal(t, []any{}, body["history"])

	code, _ = get(t, r, "/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRouter_WithState(t *testing.T) {
	sig := model.Signal{ID: uuid.New(), Timestamp: time.Date(2025, 10, 1, 14, 0, 0, 0, time.UTC), Symbol: "GPIX", Type: model.SignalBuy, Price: 50, Reason: "entry"}
	sess := &fakeSession{
		sig:   &sig,
		pos:   &model.Position{Symbol: "GPIX", EntryPrice: 50, Shares: 100, StopLoss: 49, Status: model.PositionOpen},
		stage: optional.Some(model.StagePeak),
	}
	rec := &fakeRecorder{trades: []model.Trade{{Symbol: "GPIX", ProfitLoss: 10}}}
	r := NewRouter(sess, rec, metrics.New().Handler())

	_, body := get(t, r, "/signals/latest")
	signal, ok := body["signal"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "BUY", signal["type"])

	_, body = get(t, r, "/position")
	assert.Equal(t, 100.0, body["unrealised_pl"])

	_, body = get(t, r, "/cycle")
	assert.Equal(t, "Peak", body["stage"])

	_, body = get(t, r, "/trades?limit=5")
	assert.Len(t, body["trades"], 1)
	assert.Equal(t, 5, rec.limit)

	get(t, r, "/trades?limit=abc")
	assert.Equal(t, defaultLimit, rec.limit)
	get(t, r, "/trades?limit=999999")
	assert.Equal(t, maxLimit, rec.limit)

	code, _ := get(t, r, "/metrics")
	assert.Equal(t, http.StatusOK, code)
}
