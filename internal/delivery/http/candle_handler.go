package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"backtest-backend/internal/usecase"
)

// CandleHandler serves candle history, preferring the cache.
type CandleHandler struct {
	candles *usecase.CandleService
}

func NewCandleHandler(candles *usecase.CandleService) *CandleHandler {
	return &CandleHandler{candles: candles}
}

// HandleCandles handles GET /api/candles?symbol=&timeframe=&from=&to=.
func (h *CandleHandler) HandleCandles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "1h"
	}
	from, _ := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
	to, _ := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)

	candles, err := h.candles.CachedRange(r.Context(), symbol, timeframe, from, to)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"success": true, "candles": candles})
}
