package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVJournalWritesHeadersAndRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	rec := sampleTrade("T1", 3)
	require.NoError(t, j.RecordTrade(rec))

	snap := EquitySnapshot{
		Time:    time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC),
		Balance: 10004.42,
		Equity:  10004.42,
	}
	require.NoError(t, j.RecordEquity(snap))
	require.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 2)
	assert.Equal(t, "trade_id", trades[0][0])
	assert.Equal(t, "T1", trades[1][0])
	assert.Equal(t, "BTCUSDT", trades[1][1])
	assert.Equal(t, "LONG", trades[1][2])
	assert.Equal(t, "Signal", trades[1][11])

	equity := readCSV(t, equityPath)
	require.Len(t, equity, 2)
	assert.Equal(t, []string{"time", "balance", "equity"}, equity[0])
	assert.Equal(t, "2024-03-01T03:00:00Z", equity[1][0])
}

func TestCSVJournalCreateFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := NewCSV(filepath.Join(dir, "missing", "trades.csv"), filepath.Join(dir, "equity.csv"))
	assert.Error(t, err)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
