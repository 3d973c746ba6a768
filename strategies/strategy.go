// Package strategies holds the candle strategies the backtester can
// run. Each strategy implements backtest.CandleStrategy and trades
// only through the Trader interface.
package strategies

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/backtester/backtest"
)

// ByName constructs the named strategy. entryPct is the fraction of the
// balance committed per entry for strategies that open positions.
func ByName(name string, entryPct float64) (backtest.CandleStrategy, error) {
	switch name {
	case "noop":
		return &Noop{}, nil
	case "candle-color":
		return &CandleColor{EntryPercent: entryPct}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// Names lists the available strategies, sorted.
func Names() []string {
	names := []string{"noop", "candle-color"}
	sort.Strings(names)
	return names
}
