package backtest

import (
	"fmt"
	"io"
	"time"
)

// Result is the full outcome of a run: the books plus their summary.
type Result struct {
	Symbol         string
	Strategy       string
	InitialBalance float64
	FinalBalance   float64
	FinalEquity    float64

	Start time.Time
	End   time.Time

	Trades []TradeRecord
	Equity []EquityPoint

	Summary Summary
}

// Result snapshots the engine after a replay. The trade log and equity
// curve are copies; holding a Result does not pin engine internals.
func (e *Engine) Result(strategy string) Result {
	trades := e.ledger.Trades()
	equity := e.ledger.Equity()

	r := Result{
		Symbol:         e.cfg.Symbol,
		Strategy:       strategy,
		InitialBalance: e.cfg.InitialBalance,
		FinalBalance:   e.ledger.Balance(),
		Trades:         trades,
		Equity:         equity,
	}
	if n := len(equity); n > 0 {
		r.Start = equity[0].Time
		r.End = equity[n-1].Time
		r.FinalEquity = equity[n-1].Equity
	} else {
		r.FinalEquity = r.FinalBalance
	}
	r.Summary = Summarize(r.InitialBalance, r.FinalEquity, trades, equity)
	return r
}

// Print writes a plain-text report of the run to w.
func (r Result) Print(w io.Writer) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Instrument:    %s\n", r.Symbol)
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)

	if !r.Start.IsZero() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Period")
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Candles:       %d\n", len(r.Equity))
	}

	s := r.Summary
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", s.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", s.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", s.WinRate*100)
	if s.Wins > 0 {
		fmt.Fprintf(w, "Avg Win:       %.2f\n", s.AvgWin)
	}
	if s.Losses > 0 {
		fmt.Fprintf(w, "Avg Loss:      %.2f\n", s.AvgLoss)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.InitialBalance)
	fmt.Fprintf(w, "End Balance:   %.2f\n", r.FinalBalance)
	fmt.Fprintf(w, "End Equity:    %.2f\n", r.FinalEquity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", s.TotalPnL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", s.TotalPnLPct*100)
	if s.MaxDrawdown > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f (%.2f%%)\n", s.MaxDrawdown, s.MaxDrawdownPct*100)
	}

	fmt.Fprintln(w)
}
