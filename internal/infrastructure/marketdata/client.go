package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"backtest-backend/internal/domain"
)

const DefaultBaseURL = "https://api.byquant.app"

// Client talks to the historical-candles endpoint. One call covers one request
// window; batching and merging live in the usecase layer.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type candlesResponse struct {
	Success bool            `json:"success"`
	Candles []domain.Candle `json:"candles"`
	Error   string          `json:"error,omitempty"`
}

// FetchWindow requests one window of candles. Timestamps in the response may be
// seconds or milliseconds; they are canonicalized to seconds here, and candles
// that fail basic validation are dropped before anything downstream sees them.
func (c *Client) FetchWindow(ctx context.Context, q domain.CandleQuery) ([]domain.Candle, error) {
	u, err := url.Parse(c.baseURL + "/api/candles")
	if err != nil {
		return nil, err
	}
	qs := u.Query()
	qs.Set("symbol", q.Symbol)
	qs.Set("timeframe", q.Timeframe)
	if q.Limit > 0 {
		qs.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.StartTime > 0 {
		qs.Set("startTime", strconv.FormatInt(q.StartTime, 10))
	}
	if q.EndTime > 0 {
		qs.Set("endTime", strconv.FormatInt(q.EndTime, 10))
	}
	u.RawQuery = qs.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("candles request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("candles API error: %d", resp.StatusCode)
	}

	var payload candlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}
	if !payload.Success {
		if payload.Error != "" {
			return nil, fmt.Errorf("candles API: %s", payload.Error)
		}
		return nil, fmt.Errorf("candles API: unsuccessful response")
	}

	out := make([]domain.Candle, 0, len(payload.Candles))
	for _, cdl := range payload.Candles {
		cdl.Timestamp = domain.CanonicalSeconds(cdl.Timestamp)
		if !cdl.Valid() {
			continue
		}
		out = append(out, cdl)
	}
	return out, nil
}

var _ domain.CandleSource = (*Client)(nil)
