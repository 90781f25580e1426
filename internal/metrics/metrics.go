// Package metrics exposes the live session as Prometheus metrics:
//
//	cycletrader_signals_total{type}      signals evaluated, by BUY|SELL|HOLD
//	cycletrader_trades_total{result}     closed trades, by win|loss
//	cycletrader_exits_total{reason}      closes, by stop_loss|indicator
//	cycletrader_capital_usd              realised capital
//	cycletrader_last_price_usd           close of the latest evaluated bar
//	cycletrader_position_open            1 while a position is held
//	cycletrader_cycle_stage{stage}       1 for the current stage, 0 otherwise
//	cycletrader_fetch_errors_total{source}
//	cycletrader_last_refresh_timestamp_seconds
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"CycleTrader/internal/model"
)

const namespace = "cycletrader"

var allStages = []model.CycleStage{model.StageExpansion, model.StagePeak, model.StageContraction, model.StageRecovery}

type Metrics struct {
	registry *prometheus.Registry

	signals     *prometheus.CounterVec
	trades      *prometheus.CounterVec
	exits       *prometheus.CounterVec
	capital     prometheus.Gauge
	lastPrice   prometheus.Gauge
	position    prometheus.Gauge
	stage       *prometheus.GaugeVec
	fetchErrors *prometheus.CounterVec
	lastRefresh prometheus.Gauge
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "signals_total", Help: "Signals evaluated",
		}, []string{"type"}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "trades_total", Help: "Closed trades by result",
		}, []string{"result"}),
		exits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "exits_total", Help: "Position closes by reason",
		}, []string{"reason"}),
		capital: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "capital_usd", Help: "Realised capital in USD",
		}),
		lastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_price_usd", Help: "Close of the latest evaluated bar",
		}),
		position: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "position_open", Help: "1 while a position is open",
		}),
		stage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cycle_stage", Help: "Current economic cycle stage as labeled series",
		}, []string{"stage"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetch_errors_total", Help: "Failed data fetches by source",
		}, []string{"source"}),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_refresh_timestamp_seconds", Help: "Unix time of the last successful bar refresh",
		}),
	}
	m.registry.MustRegister(
		m.signals, m.trades, m.exits, m.capital, m.lastPrice, m.position,
		m.stage, m.fetchErrors, m.lastRefresh,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSignal(sig model.Signal) {
	m.signals.WithLabelValues(string(sig.Type)).Inc()
	m.lastPrice.Set(sig.Price)
}

func (m *Metrics) ObserveTrade(t model.Trade, stopLoss bool) {
	result := "loss"
	if t.IsWinner() {
		result = "win"
	}
	m.trades.WithLabelValues(result).Inc()

	reason := "indicator"
	if stopLoss {
		reason = "stop_loss"
	}
	m.exits.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetCapital(v float64) { m.capital.Set(v) }

func (m *Metrics) SetPositionOpen(open bool) {
	if open {
		m.position.Set(1)
	} else {
		m.position.Set(0)
	}
}

// SetStage flips the stage series so exactly one reads 1.
func (m *Metrics) SetStage(stage model.CycleStage) {
	for _, s := range allStages {
		v := 0.0
		if s == stage {
			v = 1
		}
		m.stage.WithLabelValues(string(s)).Set(v)
	}
}

func (m *Metrics) FetchFailed(source string) { m.fetchErrors.WithLabelValues(source).Inc() }

func (m *Metrics) Refreshed(at time.Time) { m.lastRefresh.Set(float64(at.Unix())) }
