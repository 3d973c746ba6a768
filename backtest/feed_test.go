package backtest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/rustyeddy/backtester/pricing"
)

const sampleCSV = `time,open,high,low,close,volume
2024-03-01T00:00:00Z,100,101,99,100.5,12.5
2024-03-01T01:00:00Z,100.5,102,100,101.5,8
2024-03-01T02:00:00Z,101.5,103,101,102,9.25
`

func drain(t *testing.T, feed CandleFeed) []pricing.Candle {
	t.Helper()
	var out []pricing.Candle
	for {
		c, ok, err := feed.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, c)
	}
	require.NoError(t, feed.Close())
	return out
}

func TestCSVFeedReadsHeaderedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	feed, err := NewCSVCandleFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)

	candles := drain(t, feed)
	require.Len(t, candles, 3)
	assert.InDelta(t, 100.5, candles[0].Close, 1e-9)
	assert.InDelta(t, 12.5, candles[0].Volume, 1e-9)
	assert.True(t, candles[1].Time.Equal(time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)))
}

func TestCSVFeedUnixMilliTimestamps(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	data := "1709251200000,100,101,99,100.5,3\n"
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	feed, err := NewCSVCandleFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)

	candles := drain(t, feed)
	require.Len(t, candles, 1)
	assert.True(t, candles[0].Time.Equal(when), "got %s", candles[0].Time)
}

func TestCSVFeedRangeFilter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	from := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)

	feed, err := NewCSVCandleFeed(path, from, to)
	require.NoError(t, err)

	candles := drain(t, feed)
	require.Len(t, candles, 1, "range end is exclusive")
	assert.True(t, candles[0].Time.Equal(from))
}

func TestCSVFeedBadRow(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte("2024-03-01T00:00:00Z,abc,101,99,100,1\n"), 0644))

	feed, err := NewCSVCandleFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	defer feed.Close()

	_, _, err = feed.Next()
	assert.Error(t, err)
}

func TestCSVFeedXZDataset(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "candles.csv.xz")
	f, err := os.Create(path)
	require.NoError(t, err)
	xw, err := xz.NewWriter(f)
	require.NoError(t, err)
	_, err = xw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, xw.Close())
	require.NoError(t, f.Close())

	feed, err := NewCSVCandleFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)

	candles := drain(t, feed)
	assert.Len(t, candles, 3)
}

func TestCSVFeedZipDataset(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "candles.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	entry, err := zw.Create("candles.csv")
	require.NoError(t, err)
	_, err = entry.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	feed, err := NewCSVCandleFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)

	candles := drain(t, feed)
	assert.Len(t, candles, 3)
}

func TestCSVFeedMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewCSVCandleFeed(filepath.Join(t.TempDir(), "nope.csv"), time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	t.Parallel()

	want := candleSeries(100, 101.5, 99.25)
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, pricing.WriteCSV(path, want))

	feed, err := NewCSVCandleFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)

	got := drain(t, feed)
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, got[i].Time.Equal(want[i].Time))
		assert.InDelta(t, want[i].Close, got[i].Close, 1e-9)
		assert.InDelta(t, want[i].Volume, got[i].Volume, 1e-9)
	}
}
