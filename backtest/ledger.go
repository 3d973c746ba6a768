package backtest

import "time"

// TradeRecord is created when a position closes. Records never mutate
// once appended; the trade log is append-only and ordered by close time.
type TradeRecord struct {
	TradeID      string
	Side         Side
	EntryTime    time.Time
	EntryPrice   float64
	ExitTime     time.Time
	ExitPrice    float64
	Size         float64 // base units, always > 0
	Fees         float64 // entry + exit fees in account currency
	PnL          float64
	BalanceAfter float64
	Reason       string
}

// EquityPoint marks balance plus unrealized P/L at one candle close.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// Ledger owns the cash balance, the trade log and the equity curve.
// Fields are unexported so the only mutation path is the Engine's
// operations; prior entries are never edited or removed.
type Ledger struct {
	balance float64
	trades  []TradeRecord
	equity  []EquityPoint
}

func NewLedger(balance float64) *Ledger {
	return &Ledger{balance: balance}
}

func (l *Ledger) Balance() float64 { return l.balance }

func (l *Ledger) credit(amount float64) { l.balance += amount }
func (l *Ledger) debit(amount float64)  { l.balance -= amount }

func (l *Ledger) recordTrade(rec TradeRecord) {
	l.trades = append(l.trades, rec)
}

func (l *Ledger) markEquity(t time.Time, equity float64) {
	l.equity = append(l.equity, EquityPoint{Time: t, Equity: equity})
}

// Trades returns a copy of the trade log so callers cannot reach into
// engine-internal state.
func (l *Ledger) Trades() []TradeRecord {
	out := make([]TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

// Equity returns a copy of the equity curve.
func (l *Ledger) Equity() []EquityPoint {
	out := make([]EquityPoint, len(l.equity))
	copy(out, l.equity)
	return out
}
