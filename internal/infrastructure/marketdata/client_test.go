package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-backend/internal/domain"
)

func TestFetchWindowCanonicalizesAndFilters(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"symbol":    r.URL.Query().Get("symbol"),
			"timeframe": r.URL.Query().Get("timeframe"),
			"limit":     r.URL.Query().Get("limit"),
			"startTime": r.URL.Query().Get("startTime"),
			"endTime":   r.URL.Query().Get("endTime"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"candles": [
				{"timestamp": 1700000000000, "open": 42000, "high": 42100, "low": 41900, "close": 42050, "volume": 10},
				{"timestamp": 1700000060, "open": 42050, "high": 42200, "low": 42000, "close": 42150, "volume": 12},
				{"timestamp": 1700000120, "open": 0, "high": 0, "low": 0, "close": 0, "volume": 0}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	candles, err := client.FetchWindow(context.Background(), domain.CandleQuery{
		Symbol:    "BTCUSDT",
		Timeframe: "1h",
		Limit:     1000,
		StartTime: 1_699_000_000_000,
		EndTime:   1_700_100_000_000,
	})
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", gotQuery["symbol"])
	assert.Equal(t, "1h", gotQuery["timeframe"])
	assert.Equal(t, "1000", gotQuery["limit"])
	assert.Equal(t, "1699000000000", gotQuery["startTime"])
	assert.Equal(t, "1700100000000", gotQuery["endTime"])

	// Millisecond timestamp canonicalized, zero-price candle dropped.
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1_700_000_000), candles[0].Timestamp)
	assert.Equal(t, int64(1_700_000_060), candles[1].Timestamp)
}

func TestFetchWindowOmitsUnsetBounds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("startTime"))
		assert.False(t, r.URL.Query().Has("endTime"))
		w.Write([]byte(`{"success": true, "candles": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	candles, err := client.FetchWindow(context.Background(), domain.CandleQuery{Symbol: "BTCUSDT", Timeframe: "1h"})
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestFetchWindowAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "symbol not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchWindow(context.Background(), domain.CandleQuery{Symbol: "NOPE", Timeframe: "1h"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol not found")
}

func TestFetchWindowHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchWindow(context.Background(), domain.CandleQuery{Symbol: "BTCUSDT", Timeframe: "1h"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
