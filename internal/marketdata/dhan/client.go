// Package dhan fetches historical daily candles and instrument
// mappings from the Dhan HQ API.
package dhan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/pkg/httputil"
	"github.com/wonny/trishul/pkg/logger"
)

const (
	chartPath = "/v2/charts/historical"

	// The historical endpoint serves at most 90 days per request;
	// longer ranges are chunked.
	maxChunkDays = 90
)

// Client calls the Dhan charts API. Rate limiting and 429 retries are
// handled by the shared HTTP client.
type Client struct {
	httpClient  *httputil.Client
	logger      *logger.Logger
	baseURL     string
	accessToken string
	clientID    string
}

// NewClient creates a Dhan API client. clientID is optional.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, accessToken, clientID string) *Client {
	return &Client{
		httpClient:  httpClient,
		logger:      log,
		baseURL:     baseURL,
		accessToken: accessToken,
		clientID:    clientID,
	}
}

type chartRequest struct {
	SecurityID      string `json:"securityId"`
	ExchangeSegment string `json:"exchangeSegment"`
	Instrument      string `json:"instrument"`
	ExpiryCode      int    `json:"expiryCode"`
	FromDate        string `json:"fromDate"`
	ToDate          string `json:"toDate"`
}

// chartResponse is the column-oriented candle payload.
type chartResponse struct {
	Open      []float64 `json:"open"`
	High      []float64 `json:"high"`
	Low       []float64 `json:"low"`
	Close     []float64 `json:"close"`
	Volume    []float64 `json:"volume"`
	Timestamp []int64   `json:"timestamp"`
}

// FetchDaily fetches the symbol's daily candles for [from, to],
// chunked into 90-day windows. The result is deduplicated by date and
// sorted ascending.
func (c *Client) FetchDaily(ctx context.Context, symbol, securityID string, from, to time.Time) ([]contracts.Bar, error) {
	segment, instrument := classify(symbol)

	merged := make(map[time.Time]contracts.Bar)
	for chunkStart := contracts.Day(from); !chunkStart.After(to); {
		chunkEnd := chunkStart.AddDate(0, 0, maxChunkDays-1)
		if chunkEnd.After(to) {
			chunkEnd = contracts.Day(to)
		}

		bars, err := c.fetchChunk(ctx, securityID, segment, instrument, chunkStart, chunkEnd)
		if err != nil {
			return nil, fmt.Errorf("fetch %s chunk %s..%s: %w",
				symbol, chunkStart.Format("2006-01-02"), chunkEnd.Format("2006-01-02"), err)
		}
		for _, b := range bars {
			merged[contracts.Day(b.Date)] = b
		}

		chunkStart = chunkEnd.AddDate(0, 0, 1)
	}

	out := make([]contracts.Bar, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(out),
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}).Debug("Fetched daily candles")

	return out, nil
}

// classify maps a symbol to its exchange segment and instrument type.
// The reference index trades on the index segment, everything else is
// NSE equity.
func classify(symbol string) (segment, instrument string) {
	if symbol == "NIFTY50" {
		return "IDX_I", "INDEX"
	}
	return "NSE_EQ", "EQUITY"
}

func (c *Client) fetchChunk(ctx context.Context, securityID, segment, instrument string, from, to time.Time) ([]contracts.Bar, error) {
	payload := chartRequest{
		SecurityID:      securityID,
		ExchangeSegment: segment,
		Instrument:      instrument,
		ExpiryCode:      0,
		FromDate:        from.Format("2006-01-02"),
		ToDate:          to.Format("2006-01-02"),
	}

	headers := map[string]string{"access-token": c.accessToken}
	if c.clientID != "" {
		headers["Client-Id"] = c.clientID
	}

	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+chartPath, payload, headers)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("authentication failed (401): check access token")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	var data chartResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}

	return data.bars()
}

// bars converts the column arrays into row bars. Ragged arrays mean a
// corrupt payload.
func (r chartResponse) bars() ([]contracts.Bar, error) {
	n := len(r.Timestamp)
	if n == 0 {
		return nil, nil
	}
	if len(r.Open) != n || len(r.High) != n || len(r.Low) != n || len(r.Close) != n || len(r.Volume) != n {
		return nil, fmt.Errorf("ragged candle arrays: %d timestamps, %d/%d/%d/%d/%d ohlcv",
			n, len(r.Open), len(r.High), len(r.Low), len(r.Close), len(r.Volume))
	}

	bars := make([]contracts.Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = contracts.Bar{
			Date:   contracts.Day(time.Unix(r.Timestamp[i], 0).UTC()),
			Open:   r.Open[i],
			High:   r.High[i],
			Low:    r.Low[i],
			Close:  r.Close[i],
			Volume: int64(r.Volume[i]),
		}
	}
	return bars, nil
}
