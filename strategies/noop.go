package strategies

import (
	"context"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/pricing"
)

// Noop never trades. Useful as a baseline and for exercising the replay
// loop without position changes.
type Noop struct{}

func (s *Noop) Name() string { return "noop" }

func (s *Noop) OnCandle(ctx context.Context, t backtest.Trader, c pricing.Candle) error {
	return nil
}
