// Package backtest simulates trading a single instrument against
// historical candles. The engine holds at most one position, fills
// every order at the candle close it was issued on, and keeps the
// books so that the final balance always equals the initial balance
// plus the sum of recorded trade P/L.
package backtest

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/journal"
)

// Config holds the engine parameters fixed for the life of a run.
type Config struct {
	Symbol         string
	InitialBalance float64
	FeeRate        float64 // fraction of notional charged per leg, e.g. 0.00075
	MinNotional    float64 // orders below this are rejected; 0 disables the check
}

func (c Config) validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("%w: symbol required", ErrInvalidParameter)
	}
	if c.InitialBalance <= 0 {
		return fmt.Errorf("%w: initial balance %.2f must be positive", ErrInvalidParameter, c.InitialBalance)
	}
	if c.FeeRate < 0 {
		return fmt.Errorf("%w: fee rate %.6f must not be negative", ErrInvalidParameter, c.FeeRate)
	}
	if c.MinNotional < 0 {
		return fmt.Errorf("%w: min notional %.2f must not be negative", ErrInvalidParameter, c.MinNotional)
	}
	return nil
}

// position is the single open exposure. A zero value means flat.
type position struct {
	side       Side
	entryTime  time.Time
	entryPrice float64
	size       float64 // base units
	notional   float64 // account currency committed at entry
	entryFee   float64
}

// Engine runs one backtest. It is not safe for concurrent use; Replay
// owns it for the duration of a run.
type Engine struct {
	cfg     Config
	ledger  *Ledger
	pos     position
	log     *zap.Logger
	journal journal.Journal
}

// NewEngine validates cfg and returns a flat engine holding the initial
// balance. A nil logger is replaced with a no-op one; a nil journal
// disables persistence.
func NewEngine(cfg Config, log *zap.Logger, j journal.Journal) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		ledger:  NewLedger(cfg.InitialBalance),
		log:     log,
		journal: j,
	}, nil
}

func (e *Engine) PositionType() Side      { return e.pos.side }
func (e *Engine) Balance() float64        { return e.ledger.Balance() }
func (e *Engine) InitialBalance() float64 { return e.cfg.InitialBalance }
func (e *Engine) EntryPrice() float64     { return e.pos.entryPrice }
func (e *Engine) PositionSize() float64   { return e.pos.size }

// OpenLong commits pct of the current balance to a long position filled
// at price. The entry fee comes out of the committed notional, so the
// position size is (notional - fee) / price.
func (e *Engine) OpenLong(ts time.Time, price, pct float64) error {
	notional, fee, err := e.checkOpen(ts, price, pct)
	if err != nil {
		return fmt.Errorf("open long: %w", err)
	}

	size := (notional - fee) / price
	e.ledger.debit(notional)
	e.pos = position{
		side:       Long,
		entryTime:  ts,
		entryPrice: price,
		size:       size,
		notional:   notional,
		entryFee:   fee,
	}

	e.log.Info("opened long",
		zap.String("symbol", e.cfg.Symbol),
		zap.Time("time", ts),
		zap.Float64("price", price),
		zap.Float64("size", size),
		zap.Float64("notional", notional),
		zap.Float64("fee", fee),
		zap.Float64("balance", e.ledger.Balance()))
	return nil
}

// OpenShort sells notional/price base units at price. The proceeds,
// less the entry fee, are credited to the balance; closing later buys
// the same size back.
func (e *Engine) OpenShort(ts time.Time, price, pct float64) error {
	notional, fee, err := e.checkOpen(ts, price, pct)
	if err != nil {
		return fmt.Errorf("open short: %w", err)
	}

	size := notional / price
	e.ledger.credit(notional - fee)
	e.pos = position{
		side:       Short,
		entryTime:  ts,
		entryPrice: price,
		size:       size,
		notional:   notional,
		entryFee:   fee,
	}

	e.log.Info("opened short",
		zap.String("symbol", e.cfg.Symbol),
		zap.Time("time", ts),
		zap.Float64("price", price),
		zap.Float64("size", size),
		zap.Float64("notional", notional),
		zap.Float64("fee", fee),
		zap.Float64("balance", e.ledger.Balance()))
	return nil
}

// checkOpen validates an entry without touching state and returns the
// notional to commit plus the entry fee.
func (e *Engine) checkOpen(ts time.Time, price, pct float64) (notional, fee float64, err error) {
	if e.pos.side != None {
		return 0, 0, fmt.Errorf("%w: %s position already open", ErrInvalidState, e.pos.side)
	}
	if ts.IsZero() {
		return 0, 0, fmt.Errorf("%w: zero timestamp", ErrInvalidParameter)
	}
	if price <= 0 {
		return 0, 0, fmt.Errorf("%w: price %.8f must be positive", ErrInvalidParameter, price)
	}
	if pct <= 0 || pct > 1 {
		return 0, 0, fmt.Errorf("%w: entry percent %.4f outside (0, 1]", ErrInvalidParameter, pct)
	}
	balance := e.ledger.Balance()
	if balance <= 0 {
		return 0, 0, fmt.Errorf("%w: balance %.2f exhausted", ErrInvalidParameter, balance)
	}
	notional = balance * pct
	if e.cfg.MinNotional > 0 && notional < e.cfg.MinNotional {
		return 0, 0, fmt.Errorf("%w: notional %.2f below minimum %.2f",
			ErrInvalidParameter, notional, e.cfg.MinNotional)
	}
	return notional, notional * e.cfg.FeeRate, nil
}

// CloseLong sells the open long at price and realizes its P/L.
func (e *Engine) CloseLong(ts time.Time, price float64) error {
	if err := e.checkClose(Long, ts, price); err != nil {
		return fmt.Errorf("close long: %w", err)
	}
	return e.closePosition(ts, price, "Signal")
}

// CloseShort buys back the open short at price and realizes its P/L.
func (e *Engine) CloseShort(ts time.Time, price float64) error {
	if err := e.checkClose(Short, ts, price); err != nil {
		return fmt.Errorf("close short: %w", err)
	}
	return e.closePosition(ts, price, "Signal")
}

func (e *Engine) checkClose(want Side, ts time.Time, price float64) error {
	if e.pos.side != want {
		return fmt.Errorf("%w: position is %s", ErrInvalidState, e.pos.side)
	}
	if ts.IsZero() {
		return fmt.Errorf("%w: zero timestamp", ErrInvalidParameter)
	}
	if price <= 0 {
		return fmt.Errorf("%w: price %.8f must be positive", ErrInvalidParameter, price)
	}
	return nil
}

// closePosition settles the open position at price, appends the trade
// record, and returns the engine to flat. Callers validate first; after
// this point the books always balance.
func (e *Engine) closePosition(ts time.Time, price float64, reason string) error {
	pos := e.pos

	var pnl, exitFee float64
	switch pos.side {
	case Long:
		proceeds := pos.size * price
		exitFee = proceeds * e.cfg.FeeRate
		e.ledger.credit(proceeds - exitFee)
		pnl = proceeds - exitFee - pos.notional
	case Short:
		cost := pos.size * price
		exitFee = cost * e.cfg.FeeRate
		e.ledger.debit(cost + exitFee)
		pnl = (pos.notional - pos.entryFee) - (cost + exitFee)
	default:
		return fmt.Errorf("close: %w: no open position", ErrInvalidState)
	}

	rec := TradeRecord{
		TradeID:      id.New(),
		Side:         pos.side,
		EntryTime:    pos.entryTime,
		EntryPrice:   pos.entryPrice,
		ExitTime:     ts,
		ExitPrice:    price,
		Size:         pos.size,
		Fees:         pos.entryFee + exitFee,
		PnL:          pnl,
		BalanceAfter: e.ledger.Balance(),
		Reason:       reason,
	}
	e.ledger.recordTrade(rec)
	e.pos = position{}

	e.log.Info("closed position",
		zap.String("trade_id", rec.TradeID),
		zap.String("symbol", e.cfg.Symbol),
		zap.String("side", rec.Side.String()),
		zap.Time("time", ts),
		zap.Float64("price", price),
		zap.Float64("pnl", pnl),
		zap.Float64("fees", rec.Fees),
		zap.Float64("balance", rec.BalanceAfter),
		zap.String("reason", reason))
	if rec.BalanceAfter < 0 {
		// Shorts can lose more than the account holds. Flag it, keep
		// the arithmetic honest.
		e.log.Warn("balance is negative",
			zap.String("trade_id", rec.TradeID),
			zap.Float64("balance", rec.BalanceAfter))
	}

	if e.journal != nil {
		jrec := journal.TradeRecord{
			TradeID:      rec.TradeID,
			Symbol:       e.cfg.Symbol,
			Side:         rec.Side.String(),
			EntryTime:    rec.EntryTime,
			EntryPrice:   rec.EntryPrice,
			ExitTime:     rec.ExitTime,
			ExitPrice:    rec.ExitPrice,
			Size:         rec.Size,
			Fees:         rec.Fees,
			PnL:          rec.PnL,
			BalanceAfter: rec.BalanceAfter,
			Reason:       rec.Reason,
		}
		if err := e.journal.RecordTrade(jrec); err != nil {
			return fmt.Errorf("journal trade %s: %w", rec.TradeID, err)
		}
	}
	return nil
}

// equityAt marks the account to market at price: cash plus the value of
// a long, or minus the buyback cost of a short.
func (e *Engine) equityAt(price float64) float64 {
	switch e.pos.side {
	case Long:
		return e.ledger.Balance() + e.pos.size*price
	case Short:
		return e.ledger.Balance() - e.pos.size*price
	default:
		return e.ledger.Balance()
	}
}
