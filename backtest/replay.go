package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/pricing"
)

// Trader is the capability surface strategies see. It exposes enough to
// read position state and issue orders, and nothing that would let a
// strategy peek at future candles or rewrite history.
type Trader interface {
	PositionType() Side
	Balance() float64
	EntryPrice() float64

	OpenLong(ts time.Time, price, pct float64) error
	OpenShort(ts time.Time, price, pct float64) error
	CloseLong(ts time.Time, price float64) error
	CloseShort(ts time.Time, price float64) error
}

// CandleStrategy decides on each candle. OnCandle sees only the candle
// being replayed and the Trader; it must issue orders at the candle's
// own close.
type CandleStrategy interface {
	Name() string
	OnCandle(ctx context.Context, t Trader, c pricing.Candle) error
}

// ReplayOptions tunes end-of-run behavior.
type ReplayOptions struct {
	// CloseEnd force-closes any position still open after the last
	// candle, settling it at that candle's close.
	CloseEnd bool
}

// Replay drives strat over every candle the feed yields, in order. Each
// candle is applied exactly once: the strategy acts on it, then one
// equity point is marked at its close. A strategy error aborts the run.
func (e *Engine) Replay(ctx context.Context, feed CandleFeed, strat CandleStrategy, opts ReplayOptions) error {
	if feed == nil {
		return fmt.Errorf("replay: %w: nil feed", ErrInvalidParameter)
	}
	if strat == nil {
		return fmt.Errorf("replay: %w: nil strategy", ErrInvalidParameter)
	}
	defer feed.Close()

	e.log.Info("replay starting",
		zap.String("symbol", e.cfg.Symbol),
		zap.String("strategy", strat.Name()),
		zap.Float64("balance", e.ledger.Balance()))

	var (
		last pricing.Candle
		seen int
	)
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("replay: %w", err)
		}

		c, ok, err := feed.Next()
		if err != nil {
			return fmt.Errorf("replay: feed: %w", err)
		}
		if !ok {
			break
		}
		if seen > 0 && c.Time.Before(last.Time) {
			return fmt.Errorf("replay: candle at %s: %w", c.Time, ErrOutOfOrder)
		}

		if err := strat.OnCandle(ctx, e, c); err != nil {
			return fmt.Errorf("replay: strategy %s at %s: %w", strat.Name(), c.Time, err)
		}

		equity := e.equityAt(c.Close)
		e.ledger.markEquity(c.Time, equity)
		if e.journal != nil {
			snap := journal.EquitySnapshot{Time: c.Time, Balance: e.ledger.Balance(), Equity: equity}
			if err := e.journal.RecordEquity(snap); err != nil {
				return fmt.Errorf("replay: journal equity at %s: %w", c.Time, err)
			}
		}

		last = c
		seen++
	}

	if opts.CloseEnd && e.pos.side != None {
		if err := e.closePosition(last.Time, last.Close, "EndOfReplay"); err != nil {
			return fmt.Errorf("replay: %w", err)
		}
	}

	e.log.Info("replay finished",
		zap.Int("candles", seen),
		zap.Int("trades", len(e.ledger.trades)),
		zap.Float64("balance", e.ledger.Balance()))
	return nil
}
