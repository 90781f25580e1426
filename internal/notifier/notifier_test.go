package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleTrader/internal/model"
)

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", srv.Client(), nil)
	n.BaseURL = srv.URL

	require.NoError(t, n.Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", srv.Client(), nil)
	n.BaseURL = srv.URL

	require.NoError(t, n.SendWithRetry(context.Background(), "hi", 1))
	assert.Equal(t, int32(2), calls.Load())
}

func TestTelegramNotifier_SendWithRetryExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", srv.Client(), nil)
	n.BaseURL = srv.URL

	err := n.SendWithRetry(context.Background(), "hi", 0)
	assert.ErrorContains(t, err, "status 401")
}

func TestTelegramNotifier_PollOnce(t *testing.T) {
	var (
		mu      sync.Mutex
		replies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottoken/getUpdates":
			assert.Equal(t, "7", r.URL.Query().Get("offset"))
			fmt.Fprint(w, `{"ok":true,"result":[{"update_id":7,"message":{"text":" /signal "}},{"update_id":8}]}`)
		case "/bottoken/sendMessage":
			var p map[string]string
			_ = json.NewDecoder(r.Body).Decode(&p)
			mu.Lock()
			replies = append(replies, p["text"])
			mu.Unlock()
			fmt.Fprint(w, `{"ok":true}`)
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", srv.Client(), nil)
	n.BaseURL = srv.URL

	next, err := n.pollOnce(context.Background(), srv.Client(), 7, 0, func(cmd string) string {
		return "got " + cmd
	})
	require.NoError(t, err)
	assert.Equal(t, 9, next)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"got /signal"}, replies)
}

func TestFormatSignal(t *testing.T) {
	sig := model.Signal{
		ID:        uuid.New(),
		Timestamp: time.Date(2025, 10, 1, 14, 0, 0, 0, time.UTC),
		Symbol:    "GPIX",
		Type:      model.SignalBuy,
		Price:     97.6,
		Indicators: model.TechnicalIndicators{
			BollingerUpper: 101.34, BollingerMiddle: 99.89, BollingerLower: 98.44, RSI: 29.41,
			KeltnerUpper: optional.Some(103.66), KeltnerLower: optional.Some(95.66),
		},
		CycleStage: optional.Some(model.StageExpansion),
		Reason:     "Price 0.9% below lower BB • RSI oversold at 29",
	}
	msg := FormatSignal(sig)
	assert.Contains(t, msg, "🟢 <b>BUY GPIX</b> @ $97.60")
	assert.Contains(t, msg, "BB width: 2.90%")
	assert.Contains(t, msg, "RSI: 29.4")
	assert.Contains(t, msg, "Squeeze: on")
	assert.Contains(t, msg, "Cycle: Expansion")
	assert.Contains(t, msg, "RSI oversold at 29")
}

func TestFormatTrade(t *testing.T) {
	entry := time.Date(2025, 10, 1, 14, 0, 0, 0, time.UTC)
	tr := model.Trade{
		Symbol: "GPIX", EntryDate: entry, EntryPrice: 97.6,
		ExitDate: entry.Add(27 * time.Hour), ExitPrice: 95.648, Shares: 307.377,
		ProfitLoss: -600, ProfitLossPercent: -2,
		ExitSignal: model.Signal{Reason: "Stop loss triggered at $95.65"},
	}
	msg := FormatTrade(tr)
	assert.Contains(t, msg, "❌")
	assert.Contains(t, msg, "P/L: -$600.00 (-2.00%)")
	assert.Contains(t, msg, "Held: 1d 3h")
	assert.Contains(t, msg, "Stop loss triggered")
}

func TestFormatPosition(t *testing.T) {
	assert.Contains(t, FormatPosition(nil, 0, 30000), "Flat. Capital: $30000.00")

	p := &model.Position{Symbol: "GPIX", Shares: 100, EntryPrice: 50, StopLoss: 49}
	msg := FormatPosition(p, 51.5, 0)
	assert.Contains(t, msg, "Stop: $49.00")
	assert.Contains(t, msg, "Value at entry: $5000.00")
	assert.Contains(t, msg, "Unrealised: +$150.00 (3.00%)")
}

func TestFormatCycle(t *testing.T) {
	tr := model.StageTransition{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), FromStage: model.StageExpansion, ToStage: model.StagePeak}
	msg := FormatCycle(model.StagePeak, []model.StageTransition{tr})
	assert.Contains(t, msg, "Economic cycle: Peak")
	assert.Contains(t, msg, "2024-03-01: Expansion → Peak")

	assert.Contains(t, FormatTransition(tr), "Expansion → Peak")
}
