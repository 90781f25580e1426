package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Strategy holds the indicator and trading parameters. It is passed by value into every engine call.
type Strategy struct {
	BollingerPeriod      int     `yaml:"bollinger_period" validate:"gte=2"`
	BollingerStdDev      float64 `yaml:"bollinger_std_dev" validate:"gt=0"`
	RSIPeriod            int     `yaml:"rsi_period" validate:"gte=1"`
	RSIOversold          float64 `yaml:"rsi_oversold" validate:"gte=0,lte=100"`
	RSIOverbought        float64 `yaml:"rsi_overbought" validate:"gte=0,lte=100,gtfield=RSIOversold"`
	KeltnerPeriod        int     `yaml:"keltner_period" validate:"gte=1"`
	KeltnerATRMultiplier float64 `yaml:"keltner_atr_multiplier" validate:"gt=0"`
	InitialCapital       float64 `yaml:"initial_capital" validate:"gt=0"`
	StopLossPercent      float64 `yaml:"stop_loss_percent" validate:"gt=0,lt=1"`
	MacroSmoothingWindow int     `yaml:"macro_smoothing_window" validate:"gte=1"`
}

// DefaultStrategy returns the stock parameter set.
func DefaultStrategy() Strategy {
	return Strategy{
		BollingerPeriod:      20,
		BollingerStdDev:      2.0,
		RSIPeriod:            14,
		RSIOversold:          30,
		RSIOverbought:        70,
		KeltnerPeriod:        20,
		KeltnerATRMultiplier: 2.0,
		InitialCapital:       30000,
		StopLossPercent:      0.02,
		MacroSmoothingWindow: 90,
	}
}

// Validate checks the strategy parameters.
func (s Strategy) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	return nil
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		PolygonAPIKey string `yaml:"polygon_api_key"`
		FREDAPIKey    string `yaml:"fred_api_key"`
		Symbol        string `yaml:"symbol"`
		DaysBack      int    `yaml:"days_back"`
		MacroStart    string `yaml:"macro_start"`
	} `yaml:"data_source"`
	Schedule struct {
		BarsCron  string `yaml:"bars_cron"`
		MacroCron string `yaml:"macro_cron"`
	} `yaml:"schedule"`
	Session struct {
		StateFile string `yaml:"state_file"`
		CycleGate bool   `yaml:"cycle_gate"`
	} `yaml:"session"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Strategy Strategy `yaml:"strategy"`
	LogLevel string   `yaml:"log_level"`
	Proxy    string   `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	// Decode onto the defaults so keys missing from the file keep them and explicit zeros stick.
	cfg := &Config{Strategy: DefaultStrategy()}
	cfg.Session.CycleGate = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.DataSource.PolygonAPIKey = v
	}
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		cfg.DataSource.FREDAPIKey = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("INITIAL_CAPITAL"); v != "" {
		if capital, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Strategy.InitialCapital = capital
		}
	}

	// Defaults
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "GPIX"
	}
	if cfg.DataSource.DaysBack == 0 {
		cfg.DataSource.DaysBack = 90
	}
	if cfg.DataSource.MacroStart == "" {
		cfg.DataSource.MacroStart = "2020-01-01"
	}
	if cfg.Schedule.BarsCron == "" {
		cfg.Schedule.BarsCron = "0 */30 * * * 1-5"
	}
	if cfg.Schedule.MacroCron == "" {
		cfg.Schedule.MacroCron = "0 0 6 * * *"
	}
	if cfg.Session.StateFile == "" {
		cfg.Session.StateFile = "data/position_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/cycle_trader.db"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":9000"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.DataSource.PolygonAPIKey == "" {
		return fmt.Errorf("data_source.polygon_api_key is required")
	}
	if c.DataSource.Symbol == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	if c.DataSource.DaysBack <= 0 {
		return fmt.Errorf("data_source.days_back must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return c.Strategy.Validate()
}

// NotificationsEnabled reports whether Telegram credentials are configured.
func (c *Config) NotificationsEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
