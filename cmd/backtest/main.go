package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"CycleTrader/internal/backtest"
	"CycleTrader/internal/collector"
	"CycleTrader/internal/config"
	"CycleTrader/internal/cycle"
	"CycleTrader/internal/logger"
	"CycleTrader/internal/model"
	"CycleTrader/internal/notifier"
	"CycleTrader/internal/recorder"
)

const (
	sourceCSV     = "csv"
	sourcePolygon = "polygon"
	sourceYahoo   = "yahoo"
)

// loadBars reads the replay series from the selected source.
func loadBars(ctx context.Context, cmd *cli.Command, cfg *config.Config, symbol string) ([]model.PriceBar, error) {
	hc := collector.NewHTTPClient(cfg.Proxy)
	days := int(cmd.Int("days"))

	switch src := cmd.String("source"); src {
	case sourceCSV:
		path := cmd.String("csv")
		if path == "" {
			return nil, errors.New("--csv is required for the csv source")
		}
		return backtest.LoadCSV(path)
	case sourcePolygon:
		if cfg.DataSource.PolygonAPIKey == "" {
			return nil, errors.New("polygon source needs POLYGON_API_KEY")
		}
		return collector.NewPolygonFetcher(cfg.DataSource.PolygonAPIKey, hc).FetchBars(ctx, symbol, days)
	case sourceYahoo:
		return collector.NewYahooFetcher(hc).FetchBars(ctx, symbol, days)
	default:
		return nil, fmt.Errorf("unknown source %q", src)
	}
}

func stageLookup(ctx context.Context, cfg *config.Config, log *zap.Logger) (backtest.StageLookup, error) {
	start, err := time.Parse(time.DateOnly, cfg.DataSource.MacroStart)
	if err != nil {
		return nil, fmt.Errorf("parse macro_start: %w", err)
	}
	fred := collector.NewFREDFetcher(cfg.DataSource.FREDAPIKey, collector.NewHTTPClient(cfg.Proxy))
	data, err := fred.FetchEconomicData(ctx, start)
	if err != nil {
		return nil, err
	}
	res := cycle.Classify(data, cfg.Strategy.MacroSmoothingWindow)
	if cur := res.Current(); cur.IsSome() {
		log.Info("macro classified", zap.Int("points", len(res.Points)), zap.String("current", string(cur.Unwrap())))
	}
	return res.StageAt, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if v := cmd.Float("capital"); v > 0 {
		cfg.Strategy.InitialCapital = v
	}
	if err := cfg.Strategy.Validate(); err != nil {
		return err
	}
	symbol := cfg.DataSource.Symbol
	if v := cmd.String("symbol"); v != "" {
		symbol = v
	}

	bars, err := loadBars(ctx, cmd, cfg, symbol)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	log.Info("bars loaded", zap.String("symbol", symbol), zap.Int("count", len(bars)))

	var opts []backtest.Option
	if cmd.Bool("cycle-gate") {
		if cfg.DataSource.FREDAPIKey == "" {
			return errors.New("--cycle-gate needs FRED_API_KEY")
		}
		lookup, err := stageLookup(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("macro data: %w", err)
		}
		opts = append(opts, backtest.WithStageLookup(lookup))
	}

	res, err := backtest.NewRunner(cfg.Strategy, opts...).Run(symbol, bars)
	if err != nil {
		return err
	}

	if path := cmd.String("record"); path != "" {
		rec, err := recorder.NewSQLiteRecorder(path, log.Named("recorder"))
		if err != nil {
			return err
		}
		defer rec.Close()
		for _, t := range res.Trades {
			if err := rec.RecordTrade(t); err != nil {
				return err
			}
		}
	}

	for _, t := range res.Trades {
		fmt.Println(notifier.FormatTrade(t))
		fmt.Println()
	}
	if res.Open != nil {
		fmt.Printf("Open position: %.4f shares @ $%.2f since %s\n\n",
			res.Open.Shares, res.Open.EntryPrice, res.Open.EntryDate.Format(time.RFC3339))
	}
	fmt.Println(backtest.Summarize(res.Trades, res.InitialCapital))
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Replay the signal engine over historical 30-minute bars",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the YAML config",
				Value: "configs/config.yaml",
			},
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   fmt.Sprintf("Bar source (%s, %s, %s)", sourceCSV, sourcePolygon, sourceYahoo),
				Value:   sourceCSV,
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "CSV file with time,open,high,low,close,volume columns",
			},
			&cli.StringFlag{
				Name:    "symbol",
				Aliases: []string{"t"},
				Usage:   "Ticker symbol, defaults to data_source.symbol",
			},
			&cli.IntFlag{
				Name:    "days",
				Aliases: []string{"d"},
				Usage:   "Days of history to fetch from an API source",
				Value:   60,
			},
			&cli.FloatFlag{
				Name:  "capital",
				Usage: "Initial capital, overrides strategy.initial_capital",
			},
			&cli.BoolFlag{
				Name:  "cycle-gate",
				Usage: "Gate entries on the FRED cycle stage at each bar",
			},
			&cli.StringFlag{
				Name:  "record",
				Usage: "SQLite path to record the replayed trades",
			},
		},
		Action: runAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
