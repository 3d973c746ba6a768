package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/exchange"
	"github.com/rustyeddy/backtester/internal/logging"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest",
	Long: `Run replays historical candles through a strategy and prints a summary
of the resulting trades, balance, and drawdown.

Candles come from a CSV dataset (--dataset, also .xz or .zip) or are
fetched from Bybit for the configured symbol, timeframe, and dates.

Example:
  backtester run --dataset data/btcusdt-1h.csv --strategy candle-color --fee 0.00075`,
	RunE: runBacktest,
}

var (
	runConfigPath string
	runDataset    string
	runSymbol     string
	runTimeframe  string
	runStart      string
	runEnd        string
	runBalance    float64
	runEntryPct   float64
	runFeeRate    float64
	runStrategy   string
	runCloseEnd   bool
	runDBPath     string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML config file")
	runCmd.Flags().StringVarP(&runDataset, "dataset", "d", "", "path to candle CSV dataset (.csv, .csv.xz, or .zip)")
	runCmd.Flags().StringVarP(&runSymbol, "symbol", "i", "", "instrument symbol, e.g. BTCUSDT")
	runCmd.Flags().StringVarP(&runTimeframe, "timeframe", "t", "", "candle timeframe (1m, 5m, 15m, 30m, 1h, 4h, 1d)")
	runCmd.Flags().StringVar(&runStart, "start", "", "start date YYYY-MM-DD (inclusive)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "end date YYYY-MM-DD (inclusive)")
	runCmd.Flags().Float64VarP(&runBalance, "balance", "b", 0, "starting account balance")
	runCmd.Flags().Float64Var(&runEntryPct, "entry-pct", 0, "fraction of balance committed per entry (0, 1]")
	runCmd.Flags().Float64Var(&runFeeRate, "fee", -1, "fee rate per leg as a fraction of notional")
	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy name (see 'backtester strategies')")
	runCmd.Flags().BoolVar(&runCloseEnd, "close-end", true, "force-close any open position at the last candle")
	runCmd.Flags().StringVar(&runDBPath, "db", "", "journal trades and equity to this SQLite DB")
}

// loadRunConfig layers CLI flags over the config file over defaults.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if runConfigPath != "" {
		loaded, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if runDataset != "" {
		cfg.Dataset = runDataset
	}
	if runSymbol != "" {
		cfg.Symbol = runSymbol
	}
	if runTimeframe != "" {
		cfg.Timeframe = runTimeframe
	}
	if runStart != "" {
		cfg.Start = runStart
	}
	if runEnd != "" {
		cfg.End = runEnd
	}
	if runBalance > 0 {
		cfg.InitialBalance = runBalance
	}
	if runEntryPct > 0 {
		cfg.EntryPercent = runEntryPct
	}
	if runFeeRate >= 0 {
		cfg.FeeRate = runFeeRate
	}
	if runStrategy != "" {
		cfg.Strategy = runStrategy
	}
	if cmd.Flags().Changed("close-end") {
		cfg.CloseEnd = runCloseEnd
	}
	if runDBPath != "" {
		cfg.Journal = config.JournalConfig{Type: "sqlite", DBPath: runDBPath}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "", "none":
		return nil, nil
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
	}
}

func openFeed(ctx context.Context, cfg *config.Config, log *zap.Logger) (backtest.CandleFeed, error) {
	if cfg.Dataset != "" {
		return backtest.NewCSVCandleFeed(cfg.Dataset, cfg.StartTime(), cfg.EndTime())
	}

	if cfg.Start == "" || cfg.End == "" {
		return nil, fmt.Errorf("start and end dates required when fetching from the exchange")
	}
	client := exchange.NewClient("", log)
	candles, err := client.GetCandles(ctx, exchange.KlinesRequest{
		Symbol:    cfg.Symbol,
		Timeframe: cfg.Timeframe,
		Start:     cfg.StartTime(),
		End:       cfg.EndTime(),
	})
	if err != nil {
		return nil, err
	}
	return backtest.NewSliceFeed(candles), nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logging.Must(verbose)
	defer log.Sync()

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j != nil {
		defer j.Close()
	}

	engine, err := backtest.NewEngine(backtest.Config{
		Symbol:         cfg.Symbol,
		InitialBalance: cfg.InitialBalance,
		FeeRate:        cfg.FeeRate,
		MinNotional:    cfg.MinNotional,
	}, log, j)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	strat, err := strategies.ByName(cfg.Strategy, cfg.EntryPercent)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	ctx := cmd.Context()
	feed, err := openFeed(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("candles: %w", err)
	}

	if err := engine.Replay(ctx, feed, strat, backtest.ReplayOptions{CloseEnd: cfg.CloseEnd}); err != nil {
		return err
	}

	engine.Result(strat.Name()).Print(os.Stdout)
	return nil
}
