package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/exchange"
	"github.com/rustyeddy/backtester/internal/logging"
	"github.com/rustyeddy/backtester/pricing"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download historical candles from Bybit into a CSV dataset",
	Long: `Fetch downloads OHLCV candles for a symbol and timeframe and saves
them as a CSV dataset for later backtest runs.

Example:
  backtester fetch -i BTCUSDT -t 1h --start 2024-01-01 --end 2024-06-30 -o data/btcusdt-1h.csv`,
	RunE: runFetch,
}

var (
	fetchSymbol    string
	fetchTimeframe string
	fetchStart     string
	fetchEnd       string
	fetchOut       string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchSymbol, "symbol", "i", "BTCUSDT", "instrument symbol")
	fetchCmd.Flags().StringVarP(&fetchTimeframe, "timeframe", "t", "1h", "candle timeframe (1m, 5m, 15m, 30m, 1h, 4h, 1d)")
	fetchCmd.Flags().StringVar(&fetchStart, "start", "", "start date YYYY-MM-DD (inclusive, required)")
	fetchCmd.Flags().StringVar(&fetchEnd, "end", "", "end date YYYY-MM-DD (inclusive, required)")
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "output CSV path (required)")

	fetchCmd.MarkFlagRequired("start")
	fetchCmd.MarkFlagRequired("end")
	fetchCmd.MarkFlagRequired("out")
}

func runFetch(cmd *cobra.Command, args []string) error {
	start, err := time.Parse("2006-01-02", fetchStart)
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", fetchEnd)
	if err != nil {
		return fmt.Errorf("end date: %w", err)
	}

	log := logging.Must(verbose)
	defer log.Sync()

	client := exchange.NewClient("", log)
	candles, err := client.GetCandles(cmd.Context(), exchange.KlinesRequest{
		Symbol:    fetchSymbol,
		Timeframe: fetchTimeframe,
		Start:     start.UTC(),
		End:       end.UTC().Add(24 * time.Hour),
	})
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}

	if err := pricing.WriteCSV(fetchOut, candles); err != nil {
		return err
	}

	fmt.Printf("Saved %d candles to %s\n", len(candles), fetchOut)
	return nil
}
