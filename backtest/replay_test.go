package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/pricing"
)

type memJournal struct {
	trades []journal.TradeRecord
	equity []journal.EquitySnapshot
	closed bool
}

func (j *memJournal) RecordTrade(rec journal.TradeRecord) error {
	j.trades = append(j.trades, rec)
	return nil
}

func (j *memJournal) RecordEquity(snap journal.EquitySnapshot) error {
	j.equity = append(j.equity, snap)
	return nil
}

func (j *memJournal) Close() error {
	j.closed = true
	return nil
}

// flipStrategy alternates between opening a long and closing it on each
// candle it sees.
type flipStrategy struct {
	pct float64
}

func (s *flipStrategy) Name() string { return "flip" }

func (s *flipStrategy) OnCandle(ctx context.Context, tr Trader, c pricing.Candle) error {
	if tr.PositionType() == None {
		return tr.OpenLong(c.Time, c.Close, s.pct)
	}
	return tr.CloseLong(c.Time, c.Close)
}

type noopStrategy struct{}

func (noopStrategy) Name() string { return "noop" }
func (noopStrategy) OnCandle(ctx context.Context, tr Trader, c pricing.Candle) error {
	return nil
}

func candleSeries(closes ...float64) []pricing.Candle {
	out := make([]pricing.Candle, len(closes))
	for i, cl := range closes {
		out[i] = pricing.Candle{
			Time:   ts(i),
			Open:   cl,
			High:   cl + 1,
			Low:    cl - 1,
			Close:  cl,
			Volume: 10,
		}
	}
	return out
}

func TestReplayMarksOneEquityPointPerCandle(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000, 0)
	candles := candleSeries(100, 101, 102, 103, 104)

	err := e.Replay(context.Background(), NewSliceFeed(candles), noopStrategy{}, ReplayOptions{})
	require.NoError(t, err)

	equity := e.ledger.Equity()
	require.Len(t, equity, len(candles))
	for i, p := range equity {
		assert.True(t, p.Time.Equal(candles[i].Time))
		assert.InDelta(t, 10000, p.Equity, 1e-9, "noop run keeps equity flat")
	}
}

func TestReplayEmptyFeed(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000, 0)
	err := e.Replay(context.Background(), NewSliceFeed(nil), noopStrategy{}, ReplayOptions{CloseEnd: true})
	require.NoError(t, err)

	assert.Empty(t, e.ledger.Equity())
	assert.Empty(t, e.ledger.Trades())
	assert.InDelta(t, 10000, e.Balance(), 1e-9)
}

func TestReplayOutOfOrderCandle(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000, 0)
	candles := candleSeries(100, 101, 102)
	candles[2].Time = ts(0)

	err := e.Replay(context.Background(), NewSliceFeed(candles), noopStrategy{}, ReplayOptions{})
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestReplayStrategyErrorAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	bad := &failAfter{n: 2, err: boom}

	e := newTestEngine(t, 10000, 0)
	err := e.Replay(context.Background(), NewSliceFeed(candleSeries(100, 101, 102, 103)), bad, ReplayOptions{})
	require.ErrorIs(t, err, boom)

	// Two candles processed before the failure.
	assert.Len(t, e.ledger.Equity(), 2)
}

type failAfter struct {
	n    int
	seen int
	err  error
}

func (s *failAfter) Name() string { return "fail-after" }

func (s *failAfter) OnCandle(ctx context.Context, tr Trader, c pricing.Candle) error {
	s.seen++
	if s.seen > s.n {
		return s.err
	}
	return nil
}

func TestReplayContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEngine(t, 10000, 0)
	err := e.Replay(ctx, NewSliceFeed(candleSeries(100, 101)), noopStrategy{}, ReplayOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, e.ledger.Equity())
}

func TestReplayCloseEndSettlesOpenPosition(t *testing.T) {
	t.Parallel()

	// Odd candle count leaves the flip strategy holding a long.
	candles := candleSeries(100, 105, 110)

	e := newTestEngine(t, 10000, 0)
	err := e.Replay(context.Background(), NewSliceFeed(candles), &flipStrategy{pct: 1.0}, ReplayOptions{CloseEnd: true})
	require.NoError(t, err)

	assert.Equal(t, None, e.PositionType())
	trades := e.ledger.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, "Signal", trades[0].Reason)
	assert.Equal(t, "EndOfReplay", trades[1].Reason)
	assert.True(t, trades[1].ExitTime.Equal(candles[2].Time))
	assert.InDelta(t, candles[2].Close, trades[1].ExitPrice, 1e-9)
}

func TestReplayWithoutCloseEndLeavesPositionOpen(t *testing.T) {
	t.Parallel()

	candles := candleSeries(100, 105, 110)

	e := newTestEngine(t, 10000, 0)
	err := e.Replay(context.Background(), NewSliceFeed(candles), &flipStrategy{pct: 1.0}, ReplayOptions{CloseEnd: false})
	require.NoError(t, err)

	assert.Equal(t, Long, e.PositionType())
	assert.Len(t, e.ledger.Trades(), 1, "open position stays out of the trade log")

	// The open long is still marked to market in the last equity point.
	equity := e.ledger.Equity()
	require.Len(t, equity, 3)
	assert.InDelta(t, e.Balance()+e.PositionSize()*110, equity[2].Equity, 1e-9)
}

func TestReplayMirrorsToJournal(t *testing.T) {
	t.Parallel()

	j := &memJournal{}
	e, err := NewEngine(Config{Symbol: "ETHUSDT", InitialBalance: 5000}, nil, j)
	require.NoError(t, err)

	candles := candleSeries(100, 105, 95, 90)
	require.NoError(t, e.Replay(context.Background(), NewSliceFeed(candles), &flipStrategy{pct: 0.5}, ReplayOptions{CloseEnd: true}))

	assert.Len(t, j.equity, len(candles))
	assert.Len(t, j.trades, len(e.ledger.Trades()))
	for _, tr := range j.trades {
		assert.Equal(t, "ETHUSDT", tr.Symbol)
		assert.Equal(t, "LONG", tr.Side)
	}
}

func TestReplayNilFeedAndStrategy(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 10000, 0)
	assert.ErrorIs(t, e.Replay(context.Background(), nil, noopStrategy{}, ReplayOptions{}), ErrInvalidParameter)
	assert.ErrorIs(t, e.Replay(context.Background(), NewSliceFeed(nil), nil, ReplayOptions{}), ErrInvalidParameter)
}

func TestReplayEquityTracksOpenPosition(t *testing.T) {
	t.Parallel()

	// Open a long on the first candle and hold.
	hold := &openOnce{pct: 1.0}
	candles := candleSeries(100, 120, 80)

	e := newTestEngine(t, 10000, 0)
	require.NoError(t, e.Replay(context.Background(), NewSliceFeed(candles), hold, ReplayOptions{CloseEnd: false}))

	equity := e.ledger.Equity()
	require.Len(t, equity, 3)
	size := 10000.0 / 100
	assert.InDelta(t, size*100, equity[0].Equity, 1e-9)
	assert.InDelta(t, size*120, equity[1].Equity, 1e-9)
	assert.InDelta(t, size*80, equity[2].Equity, 1e-9)
}

type openOnce struct {
	pct    float64
	opened bool
}

func (s *openOnce) Name() string { return "open-once" }

func (s *openOnce) OnCandle(ctx context.Context, tr Trader, c pricing.Candle) error {
	if s.opened {
		return nil
	}
	s.opened = true
	return tr.OpenLong(c.Time, c.Close, s.pct)
}
