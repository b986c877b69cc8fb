package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"backtest-backend/internal/domain"
)

const DefaultBaseURL = "https://strategy.byquant.app"

// Client invokes the external backtest computation service. The service is an
// opaque collaborator: it receives the period-filtered candles and strategy
// parameters and returns trades, summary statistics and an equity series.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		// Strategy runs over a year of minute candles take a while.
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// trimmedCandle keeps the request payload down to the fields the engine reads.
type trimmedCandle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type runRequest struct {
	Candles        []trimmedCandle `json:"candles"`
	Symbol         string          `json:"symbol"`
	Timeframe      string          `json:"timeframe"`
	StrategyParams struct {
		InitialCapital      float64 `json:"initialCapital"`
		PositionSizePercent float64 `json:"positionSizePercent"`
	} `json:"strategyParams"`
}

type runResponse struct {
	Success     bool                  `json:"success"`
	Trades      []domain.Trade        `json:"trades"`
	Statistics  domain.Statistics     `json:"statistics"`
	EquityCurve []domain.EquitySample `json:"equityCurve,omitempty"`
	Error       string                `json:"error,omitempty"`
}

func (c *Client) Run(ctx context.Context, candles []domain.Candle, p domain.BacktestParams) (*domain.BacktestResult, error) {
	req := runRequest{
		Candles:   make([]trimmedCandle, 0, len(candles)),
		Symbol:    p.Symbol,
		Timeframe: p.Timeframe,
	}
	req.StrategyParams.InitialCapital = p.InitialCapital
	req.StrategyParams.PositionSizePercent = p.PositionSizePercent
	for _, cdl := range candles {
		req.Candles = append(req.Candles, trimmedCandle(cdl))
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/backtest/run", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("strategy request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("strategy API error: %d", resp.StatusCode)
	}

	var payload runResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode strategy result: %w", err)
	}
	if !payload.Success {
		if payload.Error != "" {
			return nil, fmt.Errorf("strategy API: %s", payload.Error)
		}
		return nil, fmt.Errorf("strategy API: unsuccessful response")
	}

	return &domain.BacktestResult{
		Trades:      payload.Trades,
		Statistics:  payload.Statistics,
		EquityCurve: payload.EquityCurve,
	}, nil
}

var _ domain.StrategyRunner = (*Client)(nil)
