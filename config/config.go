// Package config loads and validates backtest run configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Config represents a complete backtest run configuration.
type Config struct {
	Symbol    string `yaml:"symbol"`
	Timeframe string `yaml:"timeframe"`
	Start     string `yaml:"start"` // YYYY-MM-DD, inclusive
	End       string `yaml:"end"`   // YYYY-MM-DD, inclusive

	InitialBalance float64 `yaml:"initial_balance"`
	EntryPercent   float64 `yaml:"entry_percent"` // fraction of balance per entry
	FeeRate        float64 `yaml:"fee_rate"`      // per leg, fraction of notional
	MinNotional    float64 `yaml:"min_notional"`

	Strategy string `yaml:"strategy"`
	CloseEnd bool   `yaml:"close_end"`

	Dataset string        `yaml:"dataset,omitempty"` // CSV path; empty means fetch from the exchange
	Journal JournalConfig `yaml:"journal"`
}

// JournalConfig selects where the run's trades and equity land.
type JournalConfig struct {
	Type       string `yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `yaml:"trades_file,omitempty"`
	EquityFile string `yaml:"equity_file,omitempty"`
	DBPath     string `yaml:"db_path,omitempty"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Symbol:         "BTCUSDT",
		Timeframe:      "1h",
		InitialBalance: 10000,
		EntryPercent:   1.0,
		FeeRate:        0.00075,
		MinNotional:    5,
		Strategy:       "candle-color",
		CloseEnd:       true,
		Journal: JournalConfig{
			Type: "none",
		},
	}
}

// LoadFromFile reads a YAML config, layered over Default so absent keys
// keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.Timeframe == "" {
		return fmt.Errorf("timeframe is required")
	}
	if c.InitialBalance <= 0 {
		return fmt.Errorf("initial_balance must be positive")
	}
	if c.EntryPercent <= 0 || c.EntryPercent > 1 {
		return fmt.Errorf("entry_percent must be between 0 and 1")
	}
	if c.FeeRate < 0 {
		return fmt.Errorf("fee_rate must not be negative")
	}
	if c.MinNotional < 0 {
		return fmt.Errorf("min_notional must not be negative")
	}
	if c.Strategy == "" {
		return fmt.Errorf("strategy is required")
	}
	if c.Start != "" {
		if _, err := time.Parse(dateLayout, c.Start); err != nil {
			return fmt.Errorf("start date: %w", err)
		}
	}
	if c.End != "" {
		if _, err := time.Parse(dateLayout, c.End); err != nil {
			return fmt.Errorf("end date: %w", err)
		}
	}
	if c.Start != "" && c.End != "" {
		start, _ := time.Parse(dateLayout, c.Start)
		end, _ := time.Parse(dateLayout, c.End)
		if end.Before(start) {
			return fmt.Errorf("end date %s before start date %s", c.End, c.Start)
		}
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for csv type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for sqlite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// StartTime returns the start of the configured range in UTC, or zero
// when no start date is set.
func (c *Config) StartTime() time.Time {
	if c.Start == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, c.Start)
	return t.UTC()
}

// EndTime returns the exclusive end of the configured range: midnight
// after the end date, so the whole final day is included.
func (c *Config) EndTime() time.Time {
	if c.End == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, c.End)
	return t.UTC().Add(24 * time.Hour)
}
