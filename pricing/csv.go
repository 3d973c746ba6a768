package pricing

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// WriteCSV saves candles as a dataset readable by the replay feeds:
// header row, then time,open,high,low,close,volume with RFC3339
// timestamps.
func WriteCSV(path string, candles []Candle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, c := range candles {
		row := []string{
			c.Time.Format(time.RFC3339),
			fv(c.Open),
			fv(c.High),
			fv(c.Low),
			fv(c.Close),
			fv(c.Volume),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write dataset %s: %w", path, err)
	}
	return f.Sync()
}

func fv(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
