// Package journal persists backtest output: closed trades and equity
// snapshots. Backends share the Journal interface so the engine does
// not care whether rows land in SQLite, CSV files, or nowhere.
package journal

import (
	"time"
)

// TradeRecord is one closed round trip as the journal stores it. Side
// is the string form ("LONG" or "SHORT") so rows stay readable without
// the engine's enum.
type TradeRecord struct {
	TradeID      string
	Symbol       string
	Side         string
	EntryTime    time.Time
	EntryPrice   float64
	ExitTime     time.Time
	ExitPrice    float64
	Size         float64
	Fees         float64
	PnL          float64
	BalanceAfter float64
	Reason       string
}

// EquitySnapshot is balance and mark-to-market equity at one candle.
type EquitySnapshot struct {
	Time    time.Time
	Balance float64
	Equity  float64
}

// Journal records trades and equity points. Implementations must keep
// insertion order; the engine calls RecordEquity once per candle and
// RecordTrade once per close.
type Journal interface {
	RecordTrade(rec TradeRecord) error
	RecordEquity(snap EquitySnapshot) error
	Close() error
}
