package pricing

import (
	"fmt"
	"time"
)

// Candle is one OHLCV interval. A data source produces candles in
// timestamp order; the engine never rewrites them.
type Candle struct {
	Time time.Time

	Open  float64
	High  float64
	Low   float64
	Close float64

	Volume float64
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// Bearish reports whether the candle closed below its open.
func (c Candle) Bearish() bool { return c.Close < c.Open }

// ValidateSeries checks that candles carry positive prices and are
// ordered by non-decreasing time. Drivers run this before handing a
// series to the replay loop; the engine trusts the ordering.
func ValidateSeries(candles []Candle) error {
	for i, c := range candles {
		if c.Time.IsZero() {
			return fmt.Errorf("candle %d: zero timestamp", i)
		}
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			return fmt.Errorf("candle %d (%s): non-positive price", i, c.Time.Format(time.RFC3339))
		}
		if i > 0 && c.Time.Before(candles[i-1].Time) {
			return fmt.Errorf("candle %d (%s): out of order, before %s",
				i, c.Time.Format(time.RFC3339), candles[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}
