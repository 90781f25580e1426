package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"CycleTrader/internal/collector"
	"CycleTrader/internal/config"
	"CycleTrader/internal/cycle"
	"CycleTrader/internal/metrics"
	"CycleTrader/internal/model"
	"CycleTrader/internal/notifier"
	"CycleTrader/internal/position"
	"CycleTrader/internal/recorder"
	"CycleTrader/internal/strategy"
)

// Notifier delivers a formatted message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Options are the session settings taken from config.
type Options struct {
	Symbol     string
	DaysBack   int
	MacroStart time.Time
	CycleGate  bool
	Strategy   config.Strategy
}

// Deps are the collaborators of a session. Macro and Notifier may be nil.
type Deps struct {
	Bars     collector.BarFetcher
	Macro    collector.MacroFetcher
	Book     *position.Manager
	Notifier Notifier
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

// Scheduler is the live session: it refreshes bars and macro data on cron schedules, runs the
// signal engine and is the only writer of the position book.
type Scheduler struct {
	Cron *cron.Cron
	Ctx  context.Context

	deps Deps
	log  *zap.Logger

	// runMu serialises refreshes so each evaluation sees the book left by the previous one.
	runMu sync.Mutex

	mu        sync.RWMutex
	opts      Options
	cycle     cycle.Result
	lastPrice float64
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, deps Deps, opts Options) *Scheduler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	s := &Scheduler{
		Cron: cron.New(cron.WithSeconds()),
		Ctx:  ctx,
		deps: deps,
		log:  deps.Log,
		opts: opts,
	}
	s.deps.Metrics.SetCapital(deps.Book.Capital())
	s.deps.Metrics.SetPositionOpen(deps.Book.Position() != nil)
	return s
}

// RegisterAll registers the bar refresh and, when a macro source is configured, the macro refresh.
func (s *Scheduler) RegisterAll(barsCron, macroCron string) error {
	if _, err := s.Cron.AddFunc(barsCron, s.barsTask); err != nil {
		return fmt.Errorf("register bars task: %w", err)
	}
	if s.deps.Macro == nil {
		s.log.Info("no macro source configured, cycle gate disabled")
		return nil
	}
	if _, err := s.Cron.AddFunc(macroCron, s.macroTask); err != nil {
		return fmt.Errorf("register macro task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) barsTask() {
	if err := s.RefreshBars(s.Ctx); err != nil {
		s.log.Error("bars refresh failed", zap.Error(err), zap.Bool("retryable", collector.IsRetryable(err)))
	}
}

func (s *Scheduler) macroTask() {
	if err := s.RefreshMacro(s.Ctx); err != nil {
		s.log.Error("macro refresh failed", zap.Error(err), zap.Bool("retryable", collector.IsRetryable(err)))
	}
}

// RefreshMacro reclassifies the economy from a fresh macro fetch and records the history.
func (s *Scheduler) RefreshMacro(ctx context.Context) error {
	if s.deps.Macro == nil {
		return errors.New("no macro source configured")
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()

	data, err := s.deps.Macro.FetchEconomicData(ctx, s.options().MacroStart)
	if err != nil {
		s.deps.Metrics.FetchFailed("fred")
		return fmt.Errorf("fetch macro data: %w", err)
	}

	res := cycle.Classify(data, s.options().Strategy.MacroSmoothingWindow)
	current := res.Current()
	if current.IsNone() {
		return collector.ErrNoData
	}

	s.mu.Lock()
	prev := s.cycle.Current()
	s.cycle = res
	s.mu.Unlock()

	if err := s.deps.Recorder.RecordStages(res.Points); err != nil {
		s.log.Error("record stages failed", zap.Error(err))
	}
	transitions := res.Transitions()
	if err := s.deps.Recorder.RecordTransitions(transitions); err != nil {
		s.log.Error("record transitions failed", zap.Error(err))
	}
	s.deps.Metrics.SetStage(current.Unwrap())
	s.log.Info("economy classified",
		zap.String("stage", string(current.Unwrap())), zap.Int("observations", len(data)))

	if prev.IsSome() && prev.Unwrap() != current.Unwrap() && len(transitions) > 0 {
		s.notify(ctx, notifier.FormatTransition(transitions[len(transitions)-1]))
	}
	return nil
}

// RefreshBars fetches the latest bars, evaluates the last one against the open position and
// applies the resulting transition.
func (s *Scheduler) RefreshBars(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	opts := s.options()
	bars, err := s.deps.Bars.FetchBars(ctx, opts.Symbol, opts.DaysBack)
	if err != nil {
		s.deps.Metrics.FetchFailed(s.deps.Bars.Name())
		return fmt.Errorf("fetch bars: %w", err)
	}
	s.deps.Metrics.Refreshed(time.Now())

	stage := optional.None[model.CycleStage]()
	if opts.CycleGate {
		stage = s.CycleStage()
	}

	d, ok := strategy.Evaluate(bars, opts.Symbol, stage, s.deps.Book.Position(), opts.Strategy)
	if !ok {
		s.log.Warn("not enough bars to evaluate",
			zap.Int("bars", len(bars)), zap.Int("required", opts.Strategy.BollingerPeriod))
		return nil
	}

	s.mu.Lock()
	s.lastPrice = bars[len(bars)-1].Close
	s.mu.Unlock()

	trade, err := s.deps.Book.Apply(d)
	if err != nil {
		return fmt.Errorf("apply %s: %w", d.Intent, err)
	}

	sig := d.Signal
	s.deps.Metrics.ObserveSignal(sig)
	if err := s.deps.Recorder.RecordSignal(sig); err != nil {
		s.log.Error("record signal failed", zap.Error(err))
	}
	s.log.Info("signal evaluated",
		zap.String("symbol", sig.Symbol), zap.String("type", string(sig.Type)),
		zap.Float64("price", sig.Price), zap.String("intent", d.Intent.String()), zap.String("reason", sig.Reason))

	if trade != nil {
		s.deps.Metrics.ObserveTrade(*trade, d.StopLoss)
		if err := s.deps.Recorder.RecordTrade(*trade); err != nil {
			s.log.Error("record trade failed", zap.Error(err))
		}
		s.notify(ctx, notifier.FormatTrade(*trade))
	}
	s.deps.Metrics.SetCapital(s.deps.Book.Capital())
	s.deps.Metrics.SetPositionOpen(s.deps.Book.Position() != nil)

	if s.deps.Book.RecordSignal(sig) {
		s.notify(ctx, notifier.FormatSignal(sig))
	}
	return nil
}

// SetSymbol switches the traded symbol, discarding the position and signal state of the old one.
func (s *Scheduler) SetSymbol(symbol string) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	s.opts.Symbol = symbol
	s.lastPrice = 0
	s.mu.Unlock()

	s.deps.Book.Reset(symbol)
	s.deps.Metrics.SetCapital(s.deps.Book.Capital())
	s.deps.Metrics.SetPositionOpen(false)
	s.log.Info("symbol changed", zap.String("symbol", symbol))
}

func (s *Scheduler) options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

func (s *Scheduler) Symbol() string { return s.options().Symbol }

// CycleStage returns the latest classified stage, if macro data has been loaded.
func (s *Scheduler) CycleStage() optional.Option[model.CycleStage] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycle.Current()
}

// CycleTransitions returns every stage change of the latest classification.
func (s *Scheduler) CycleTransitions() []model.StageTransition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycle.Transitions()
}

func (s *Scheduler) LastPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPrice
}

func (s *Scheduler) LatestSignal() (model.Signal, bool) { return s.deps.Book.LastSignal() }

func (s *Scheduler) Position() *model.Position { return s.deps.Book.Position() }

func (s *Scheduler) Capital() float64 { return s.deps.Book.Capital() }

const helpText = "Commands:\n• /signal latest signal\n• /position open position\n• /cycle economic cycle\n• /refresh evaluate now\n• /symbol TICKER switch symbol"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch fields[0] {
	case "/signal":
		sig, ok := s.LatestSignal()
		if !ok {
			return "No signal yet."
		}
		return notifier.FormatSignal(sig)
	case "/position":
		return notifier.FormatPosition(s.Position(), s.LastPrice(), s.Capital())
	case "/cycle":
		stage := s.CycleStage()
		if stage.IsNone() {
			return "Economic data not loaded."
		}
		ts := s.CycleTransitions()
		if len(ts) > 3 {
			ts = ts[len(ts)-3:]
		}
		return notifier.FormatCycle(stage.Unwrap(), ts)
	case "/refresh":
		if err := s.RefreshBars(s.Ctx); err != nil {
			return fmt.Sprintf("❌ Refresh failed: %v", err)
		}
		return ""
	case "/symbol":
		if len(fields) < 2 {
			return "Usage: /symbol TICKER"
		}
		symbol := strings.ToUpper(fields[1])
		s.SetSymbol(symbol)
		return fmt.Sprintf("Now tracking %s. Position and signal history reset.", symbol)
	default:
		return helpText
	}
}

func (s *Scheduler) notify(ctx context.Context, text string) {
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.Notify(ctx, text); err != nil {
		s.log.Error("send notification failed", zap.Error(err))
	}
}
