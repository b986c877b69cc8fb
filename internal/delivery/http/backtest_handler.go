package http

import (
	"encoding/json"
	"net/http"

	"backtest-backend/internal/domain"
	"backtest-backend/internal/usecase"
)

// BacktestHandler exposes the backtest pipeline: trigger a run, read the
// latest render state, read the masked trade history.
type BacktestHandler struct {
	orchestrator *usecase.BacktestOrchestrator
	states       domain.RenderStateRepository
}

func NewBacktestHandler(orchestrator *usecase.BacktestOrchestrator, states domain.RenderStateRepository) *BacktestHandler {
	return &BacktestHandler{orchestrator: orchestrator, states: states}
}

// HandleRun handles POST /api/backtest. The run itself is asynchronous: phase
// 1 lands in the render state as soon as candles are in, phase 2 follows.
func (h *BacktestHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var p domain.BacktestParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if p.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	if p.Timeframe == "" {
		p.Timeframe = "1h"
	}
	if p.Period == "" {
		p.Period = "all"
	}
	if p.InitialCapital <= 0 {
		p.InitialCapital = 10000
	}
	if p.PositionSizePercent <= 0 {
		p.PositionSizePercent = 10
	}

	seq := h.orchestrator.Run(p)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"accepted": true, "sequence": seq})
}

// HandleState handles GET /api/backtest/state.
func (h *BacktestHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state, ok := h.states.Latest()
	if !ok {
		http.Error(w, "no backtest has run yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

// tradeRow is one line of the trade history table. Open positions keep their
// identity fields but have the numeric ones withheld: the values exist
// internally, the presentation must not show them.
type tradeRow struct {
	EntryTime  int64    `json:"entryTime"`
	ExitTime   int64    `json:"exitTime,omitempty"`
	Type       string   `json:"type"`
	ExitType   string   `json:"exitType"`
	EntryPrice *float64 `json:"entryPrice,omitempty"`
	ExitPrice  *float64 `json:"exitPrice,omitempty"`
	Result     *float64 `json:"result,omitempty"`
	Open       bool     `json:"open"`
}

// HandleTrades handles GET /api/backtest/trades.
func (h *BacktestHandler) HandleTrades(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state, ok := h.states.Latest()
	if !ok {
		http.Error(w, "no backtest has run yet", http.StatusNotFound)
		return
	}

	open := usecase.OpenEntryTimes(state.Trades)
	rows := make([]tradeRow, 0, len(state.Trades))
	for _, t := range state.Trades {
		entry := domain.CanonicalSeconds(t.EntryTime)
		row := tradeRow{
			EntryTime: entry,
			ExitTime:  domain.CanonicalSeconds(t.ExitTime),
			Type:      t.Type,
			ExitType:  t.ExitType,
			Open:      t.ExitType == domain.ExitTypeEntry && open[entry],
		}
		if !row.Open {
			price := t.EntryPrice
			row.EntryPrice = &price
			row.ExitPrice = t.ExitPrice
			row.Result = t.Result
		}
		rows = append(rows, row)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}
