package cmd

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "A candle-based backtesting engine for single-instrument strategies",
	Long: `Backtester replays historical OHLCV candles through a trading strategy
and accounts for every fill, fee, and equity mark along the way.

It provides tools for:
  - Running candle-by-candle backtests with exact fee accounting
  - Downloading historical candles from Bybit
  - Journaling trades and equity curves to SQLite or CSV
  - Summarizing runs: win rate, average win/loss, max drawdown`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "human-readable debug logging")
}
