package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"CycleTrader/internal/api"
	"CycleTrader/internal/collector"
	"CycleTrader/internal/config"
	"CycleTrader/internal/logger"
	"CycleTrader/internal/metrics"
	"CycleTrader/internal/notifier"
	"CycleTrader/internal/position"
	"CycleTrader/internal/recorder"
	"CycleTrader/internal/scheduler"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		log.Fatal("config validation", zap.Error(err))
	}
	log.Info("CycleTrader starting", zap.String("symbol", cfg.DataSource.Symbol))

	hc := collector.NewHTTPClient(cfg.Proxy)
	bars := collector.NewPolygonFetcher(cfg.DataSource.PolygonAPIKey, hc)

	var macro collector.MacroFetcher
	if cfg.DataSource.FREDAPIKey != "" {
		macro = collector.NewFREDFetcher(cfg.DataSource.FREDAPIKey, hc)
	}
	macroStart, err := time.Parse(time.DateOnly, cfg.DataSource.MacroStart)
	if err != nil {
		log.Fatal("parse macro_start", zap.Error(err))
	}

	book, err := position.NewManager(cfg.Session.StateFile, cfg.DataSource.Symbol,
		cfg.Strategy.InitialCapital, cfg.Strategy.StopLossPercent, log.Named("position"))
	if err != nil {
		log.Fatal("init position manager", zap.Error(err))
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log.Named("recorder"))
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	m := metrics.New()

	var tn *notifier.TelegramNotifier
	deps := scheduler.Deps{
		Bars:     bars,
		Macro:    macro,
		Book:     book,
		Recorder: rec,
		Metrics:  m,
		Log:      log.Named("scheduler"),
	}
	if cfg.NotificationsEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, hc, log.Named("telegram"))
		deps.Notifier = tn
	} else {
		log.Info("telegram not configured, notifications disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, deps, scheduler.Options{
		Symbol:     cfg.DataSource.Symbol,
		DaysBack:   cfg.DataSource.DaysBack,
		MacroStart: macroStart,
		CycleGate:  cfg.Session.CycleGate,
		Strategy:   cfg.Strategy,
	})
	if err := sched.RegisterAll(cfg.Schedule.BarsCron, cfg.Schedule.MacroCron); err != nil {
		log.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	// Classify first so the initial evaluation is gated on a known stage.
	go func() {
		if macro != nil {
			if err := sched.RefreshMacro(ctx); err != nil {
				log.Warn("initial macro refresh failed", zap.Error(err))
			}
		}
		if err := sched.RefreshBars(ctx); err != nil {
			log.Warn("initial bars refresh failed", zap.Error(err))
		}
	}()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	router := api.NewRouter(sched, rec, m.Handler())
	if err := api.Serve(ctx, cfg.HTTP.Addr, router, log.Named("api")); err != nil {
		log.Error("http server", zap.Error(err))
	}

	log.Info("CycleTrader stopped")
}
