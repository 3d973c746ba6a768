package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/xyproto/unzip"

	"github.com/rustyeddy/backtester/pricing"
)

// CandleFeed yields candles one at a time in timestamp order. Next
// returns ok=false when the series is exhausted.
type CandleFeed interface {
	Next() (pricing.Candle, bool, error)
	Close() error
}

// SliceFeed replays an in-memory series. Handy for tests and for data
// already fetched from an exchange.
type SliceFeed struct {
	candles []pricing.Candle
	i       int
}

func NewSliceFeed(candles []pricing.Candle) *SliceFeed {
	return &SliceFeed{candles: candles}
}

func (f *SliceFeed) Next() (pricing.Candle, bool, error) {
	if f.i >= len(f.candles) {
		return pricing.Candle{}, false, nil
	}
	c := f.candles[f.i]
	f.i++
	return c, true, nil
}

func (f *SliceFeed) Close() error { return nil }

// CSVCandleFeed streams candles from a CSV dataset with columns
// time,open,high,low,close,volume. Timestamps may be RFC3339 or unix
// milliseconds; a header row is skipped if present. Datasets may be
// plain, xz-compressed (.xz), or zipped (.zip).
type CSVCandleFeed struct {
	r       *csv.Reader
	from    time.Time
	to      time.Time
	line    int
	cleanup func() error
}

// NewCSVCandleFeed opens path and filters to candles in [from, to). A
// zero from or to disables that bound.
func NewCSVCandleFeed(path string, from, to time.Time) (*CSVCandleFeed, error) {
	rd, cleanup, err := openDataset(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = 6
	cr.TrimLeadingSpace = true
	return &CSVCandleFeed{r: cr, from: from, to: to, cleanup: cleanup}, nil
}

func (f *CSVCandleFeed) Next() (pricing.Candle, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return pricing.Candle{}, false, nil
		}
		if err != nil {
			return pricing.Candle{}, false, fmt.Errorf("csv line %d: %w", f.line+1, err)
		}
		f.line++

		if f.line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			continue
		}

		c, err := parseCandleRow(row)
		if err != nil {
			return pricing.Candle{}, false, fmt.Errorf("csv line %d: %w", f.line, err)
		}
		if !inRange(c.Time, f.from, f.to) {
			continue
		}
		return c, true, nil
	}
}

func (f *CSVCandleFeed) Close() error {
	if f.cleanup != nil {
		return f.cleanup()
	}
	return nil
}

func parseCandleRow(row []string) (pricing.Candle, error) {
	ts, err := parseTimestamp(row[0])
	if err != nil {
		return pricing.Candle{}, err
	}
	vals := make([]float64, 5)
	for i, s := range row[1:6] {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return pricing.Candle{}, fmt.Errorf("column %d: %w", i+2, err)
		}
		vals[i] = v
	}
	return pricing.Candle{
		Time:   ts,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// openDataset returns a reader for path, transparently decompressing xz
// archives and extracting single-file zip datasets. The cleanup func
// releases the file and any temp extraction dir.
func openDataset(path string) (io.Reader, func() error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		xr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("xz: %w", err)
		}
		return xr, f.Close, nil

	case ".zip":
		dir, err := os.MkdirTemp("", "backtester-dataset-")
		if err != nil {
			return nil, nil, err
		}
		if err := unzip.Extract(path, dir); err != nil {
			os.RemoveAll(dir)
			return nil, nil, fmt.Errorf("unzip: %w", err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) == 0 {
			os.RemoveAll(dir)
			return nil, nil, fmt.Errorf("zip %s: no entries", path)
		}
		f, err := os.Open(filepath.Join(dir, entries[0].Name()))
		if err != nil {
			os.RemoveAll(dir)
			return nil, nil, err
		}
		return f, func() error {
			f.Close()
			return os.RemoveAll(dir)
		}, nil

	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}
}
