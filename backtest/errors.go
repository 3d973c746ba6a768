package backtest

import "errors"

var (
	// ErrInvalidParameter covers out-of-range percents, non-positive
	// prices and balances, and below-minimum orders. The triggering call
	// mutates nothing.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidState is returned when an operation is not legal in the
	// current position state: opening while a position is held, or
	// closing while flat. The engine never auto-corrects by force-closing.
	ErrInvalidState = errors.New("invalid state")

	// ErrOutOfOrder is returned by Replay when a candle moves backwards
	// in time relative to its predecessor.
	ErrOutOfOrder = errors.New("candle out of order")
)
