package strategies

import (
	"context"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/pricing"
)

// CandleColor trades the direction of each candle body. Flat, it opens
// with the candle: long on a bullish close, short on a bearish one. In
// a position, it exits when a candle closes against the side. Doji
// candles change nothing.
type CandleColor struct {
	// EntryPercent is the fraction of the balance committed per entry.
	EntryPercent float64
}

func (s *CandleColor) Name() string { return "candle-color" }

func (s *CandleColor) OnCandle(ctx context.Context, t backtest.Trader, c pricing.Candle) error {
	switch t.PositionType() {
	case backtest.None:
		if c.Bullish() {
			return t.OpenLong(c.Time, c.Close, s.EntryPercent)
		}
		if c.Bearish() {
			return t.OpenShort(c.Time, c.Close, s.EntryPercent)
		}
	case backtest.Long:
		if c.Bearish() {
			return t.CloseLong(c.Time, c.Close)
		}
	case backtest.Short:
		if c.Bullish() {
			return t.CloseShort(c.Time, c.Close)
		}
	}
	return nil
}
