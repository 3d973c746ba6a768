// Package exchange fetches historical candles from Bybit's public v5
// market API. Only the kline endpoint is used; no credentials needed.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/pricing"
)

const (
	defaultBaseURL = "https://api.bybit.com"
	pageLimit      = 1000
)

// timeframes maps our timeframe names to Bybit interval codes and the
// candle duration used for pagination.
var timeframes = map[string]struct {
	code string
	dur  time.Duration
}{
	"1m":  {"1", time.Minute},
	"5m":  {"5", 5 * time.Minute},
	"15m": {"15", 15 * time.Minute},
	"30m": {"30", 30 * time.Minute},
	"1h":  {"60", time.Hour},
	"4h":  {"240", 4 * time.Hour},
	"1d":  {"D", 24 * time.Hour},
}

// Timeframes lists the supported timeframe names, sorted by duration.
func Timeframes() []string {
	names := make([]string, 0, len(timeframes))
	for name := range timeframes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return timeframes[names[i]].dur < timeframes[names[j]].dur
	})
	return names
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient returns a Bybit market-data client. An empty baseURL picks
// the production endpoint; tests point it at a local server.
func NewClient(baseURL string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// KlinesRequest describes a candle download. Start is inclusive, End
// exclusive.
type KlinesRequest struct {
	Symbol    string
	Timeframe string
	Start     time.Time
	End       time.Time
}

type klineResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Symbol string     `json:"symbol"`
		List   [][]string `json:"list"`
	} `json:"result"`
}

// GetCandles downloads the requested range, paging forward through the
// API until the window is covered. Candles come back oldest first.
func (c *Client) GetCandles(ctx context.Context, req KlinesRequest) ([]pricing.Candle, error) {
	tf, ok := timeframes[req.Timeframe]
	if !ok {
		return nil, fmt.Errorf("unsupported timeframe %q", req.Timeframe)
	}
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if !req.End.After(req.Start) {
		return nil, fmt.Errorf("end %s not after start %s", req.End, req.Start)
	}

	var out []pricing.Candle
	window := time.Duration(pageLimit) * tf.dur

	for cursor := req.Start; cursor.Before(req.End); {
		end := cursor.Add(window)
		if end.After(req.End) {
			end = req.End
		}

		page, err := c.fetchPage(ctx, req.Symbol, tf.code, cursor, end)
		if err != nil {
			return nil, err
		}
		c.log.Debug("fetched kline page",
			zap.String("symbol", req.Symbol),
			zap.Time("from", cursor),
			zap.Time("to", end),
			zap.Int("candles", len(page)))

		out = append(out, page...)
		cursor = end
	}

	if err := pricing.ValidateSeries(out); err != nil {
		return nil, fmt.Errorf("kline series: %w", err)
	}
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, symbol, interval string, start, end time.Time) ([]pricing.Candle, error) {
	q := url.Values{}
	q.Set("category", "spot")
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("start", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("end", strconv.FormatInt(end.UnixMilli(), 10))
	q.Set("limit", strconv.Itoa(pageLimit))

	u := c.baseURL + "/v5/market/kline?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("kline request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kline request: unexpected status %s", resp.Status)
	}

	var kr klineResponse
	if err := json.NewDecoder(resp.Body).Decode(&kr); err != nil {
		return nil, fmt.Errorf("decode kline response: %w", err)
	}
	if kr.RetCode != 0 {
		return nil, fmt.Errorf("kline request: retCode %d: %s", kr.RetCode, kr.RetMsg)
	}

	// Bybit returns rows newest first.
	candles := make([]pricing.Candle, 0, len(kr.Result.List))
	for i := len(kr.Result.List) - 1; i >= 0; i-- {
		candle, err := parseKlineRow(kr.Result.List[i])
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// parseKlineRow decodes one v5 kline row:
// [startTime, open, high, low, close, volume, turnover].
func parseKlineRow(row []string) (pricing.Candle, error) {
	if len(row) < 6 {
		return pricing.Candle{}, fmt.Errorf("kline row has %d fields, want at least 6", len(row))
	}
	ms, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return pricing.Candle{}, fmt.Errorf("kline start time %q: %w", row[0], err)
	}
	vals := make([]float64, 5)
	for i, s := range row[1:6] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return pricing.Candle{}, fmt.Errorf("kline field %d %q: %w", i+1, s, err)
		}
		vals[i] = v
	}
	return pricing.Candle{
		Time:   time.UnixMilli(ms).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}
