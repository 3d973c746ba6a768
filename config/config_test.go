package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.CloseEnd)
	assert.Equal(t, "none", cfg.Journal.Type)
}

func TestLoadFromFileLayersOverDefaults(t *testing.T) {
	t.Parallel()

	data := `
symbol: ETHUSDT
timeframe: 4h
start: 2024-01-01
end: 2024-06-30
initial_balance: 25000
fee_rate: 0.001
journal:
  type: sqlite
  db_path: ./run.db
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", cfg.Symbol)
	assert.Equal(t, "4h", cfg.Timeframe)
	assert.InDelta(t, 25000, cfg.InitialBalance, 1e-9)
	assert.InDelta(t, 0.001, cfg.FeeRate, 1e-9)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, "candle-color", cfg.Strategy)
	assert.InDelta(t, 1.0, cfg.EntryPercent, 1e-9)
	assert.True(t, cfg.CloseEnd)
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	t.Parallel()

	data := "initial_balance: -100\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing symbol", func(c *Config) { c.Symbol = "" }},
		{"missing timeframe", func(c *Config) { c.Timeframe = "" }},
		{"zero balance", func(c *Config) { c.InitialBalance = 0 }},
		{"entry percent above one", func(c *Config) { c.EntryPercent = 1.5 }},
		{"negative fee", func(c *Config) { c.FeeRate = -0.01 }},
		{"bad start date", func(c *Config) { c.Start = "01/02/2024" }},
		{"end before start", func(c *Config) { c.Start = "2024-06-01"; c.End = "2024-01-01" }},
		{"csv journal without files", func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }},
		{"sqlite journal without path", func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }},
		{"unknown journal type", func(c *Config) { c.Journal = JournalConfig{Type: "postgres"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTimeRange(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Start = "2024-03-01"
	cfg.End = "2024-03-01"

	start := cfg.StartTime()
	end := cfg.EndTime()

	assert.True(t, start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	// The end date is inclusive: the range covers the whole day.
	assert.True(t, end.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)))

	empty := Default()
	assert.True(t, empty.StartTime().IsZero())
	assert.True(t, empty.EndTime().IsZero())
}

func TestSaveToFileRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Symbol = "SOLUSDT"

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
