package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"CycleTrader/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the API can read while the session writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id            TEXT PRIMARY KEY,
			timestamp     INTEGER NOT NULL,
			symbol        TEXT NOT NULL,
			type          TEXT NOT NULL,
			price         REAL,
			bb_upper      REAL,
			bb_middle     REAL,
			bb_lower      REAL,
			rsi           REAL,
			keltner_upper REAL,
			keltner_lower REAL,
			atr           REAL,
			cycle_stage   TEXT,
			reason        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id                  TEXT PRIMARY KEY,
			position_id         TEXT NOT NULL,
			symbol              TEXT NOT NULL,
			entry_ts            INTEGER NOT NULL,
			entry_price         REAL,
			exit_ts             INTEGER NOT NULL,
			exit_price          REAL,
			shares              REAL,
			profit_loss         REAL,
			profit_loss_percent REAL,
			entry_reason        TEXT,
			exit_reason         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_exit ON trades(exit_ts)`,

		`CREATE TABLE IF NOT EXISTS cycle_stages (
			date  INTEGER PRIMARY KEY,
			stage TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS stage_transitions (
			date       INTEGER PRIMARY KEY,
			from_stage TEXT NOT NULL,
			to_stage   TEXT NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func nullFloat(o optional.Option[float64]) sql.NullFloat64 {
	if o.IsNone() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: o.Unwrap(), Valid: true}
}

func (r *SQLiteRecorder) RecordSignal(sig model.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stage sql.NullString
	if sig.CycleStage.IsSome() {
		stage = sql.NullString{String: string(sig.CycleStage.Unwrap()), Valid: true}
	}
	ind := sig.Indicators
	_, err := r.db.Exec(`INSERT OR IGNORE INTO signals
		(id, timestamp, symbol, type, price, bb_upper, bb_middle, bb_lower, rsi,
		 keltner_upper, keltner_lower, atr, cycle_stage, reason)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		sig.ID.String(), sig.Timestamp.Unix(), sig.Symbol, string(sig.Type), sig.Price,
		ind.BollingerUpper, ind.BollingerMiddle, ind.BollingerLower, ind.RSI,
		nullFloat(ind.KeltnerUpper), nullFloat(ind.KeltnerLower), nullFloat(ind.ATR),
		stage, sig.Reason,
	)
	return err
}

func (r *SQLiteRecorder) RecordTrade(t model.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR IGNORE INTO trades
		(id, position_id, symbol, entry_ts, entry_price, exit_ts, exit_price, shares,
		 profit_loss, profit_loss_percent, entry_reason, exit_reason)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID.String(), t.PositionID.String(), t.Symbol,
		t.EntryDate.Unix(), t.EntryPrice, t.ExitDate.Unix(), t.ExitPrice, t.Shares,
		t.ProfitLoss, t.ProfitLossPercent, t.EntrySignal.Reason, t.ExitSignal.Reason,
	)
	return err
}

// RecordStages replaces the stored stage series with points in one transaction.
func (r *SQLiteRecorder) RecordStages(points []model.StagePoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM cycle_stages`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear stages: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO cycle_stages (date, stage) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(p.Date.Unix(), string(p.Stage)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert stage: %w", err)
		}
	}
	return tx.Commit()
}

// RecordTransitions replaces the stored transitions with ts in one transaction.
func (r *SQLiteRecorder) RecordTransitions(ts []model.StageTransition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM stage_transitions`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear transitions: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO stage_transitions (date, from_stage, to_stage) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, t := range ts {
		if _, err := stmt.Exec(t.Date.Unix(), string(t.FromStage), string(t.ToStage)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert transition: %w", err)
		}
	}
	return tx.Commit()
}

// Trades returns up to limit trades, most recent exit first.
func (r *SQLiteRecorder) Trades(limit int) ([]model.Trade, error) {
	rows, err := r.db.Query(`SELECT id, position_id, symbol, entry_ts, entry_price, exit_ts, exit_price,
		shares, profit_loss, profit_loss_percent, entry_reason, exit_reason
		FROM trades ORDER BY exit_ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Trade
	for rows.Next() {
		var (
			t                 model.Trade
			id, posID         string
			entryTS, exitTS   int64
			entryWhy, exitWhy sql.NullString
		)
		if err := rows.Scan(&id, &posID, &t.Symbol, &entryTS, &t.EntryPrice, &exitTS, &t.ExitPrice,
			&t.Shares, &t.ProfitLoss, &t.ProfitLossPercent, &entryWhy, &exitWhy); err != nil {
			return nil, err
		}
		t.ID, _ = uuid.Parse(id)
		t.PositionID, _ = uuid.Parse(posID)
		t.EntryDate = time.Unix(entryTS, 0).UTC()
		t.ExitDate = time.Unix(exitTS, 0).UTC()
		t.EntrySignal = model.Signal{Symbol: t.Symbol, Type: model.SignalBuy, Timestamp: t.EntryDate, Price: t.EntryPrice, Reason: entryWhy.String}
		t.ExitSignal = model.Signal{Symbol: t.Symbol, Type: model.SignalSell, Timestamp: t.ExitDate, Price: t.ExitPrice, Reason: exitWhy.String}
		out = append(out, t)
	}
	return out, rows.Err()
}

// StageHistory returns the latest limit classified dates in ascending order.
func (r *SQLiteRecorder) StageHistory(limit int) ([]model.StagePoint, error) {
	rows, err := r.db.Query(`SELECT date, stage FROM
		(SELECT date, stage FROM cycle_stages ORDER BY date DESC LIMIT ?) ORDER BY date ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StagePoint
	for rows.Next() {
		var (
			date  int64
			stage string
		)
		if err := rows.Scan(&date, &stage); err != nil {
			return nil, err
		}
		out = append(out, model.StagePoint{Date: time.Unix(date, 0).UTC(), Stage: model.CycleStage(stage)})
	}
	return out, rows.Err()
}

// Transitions returns the latest limit stage changes in ascending order.
func (r *SQLiteRecorder) Transitions(limit int) ([]model.StageTransition, error) {
	rows, err := r.db.Query(`SELECT date, from_stage, to_stage FROM
		(SELECT date, from_stage, to_stage FROM stage_transitions ORDER BY date DESC LIMIT ?) ORDER BY date ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StageTransition
	for rows.Next() {
		var (
			date     int64
			from, to string
		)
		if err := rows.Scan(&date, &from, &to); err != nil {
			return nil, err
		}
		out = append(out, model.StageTransition{
			Date:      time.Unix(date, 0).UTC(),
			FromStage: model.CycleStage(from),
			ToStage:   model.CycleStage(to),
		})
	}
	return out, rows.Err()
}

// CountSignals returns how many signals are stored.
func (r *SQLiteRecorder) CountSignals() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM signals`).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
