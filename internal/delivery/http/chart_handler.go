package http

import (
	"net/http"
	"strconv"

	"backtest-backend/internal/domain"
	"backtest-backend/internal/infrastructure/chart"
)

// ChartHandler serves the rendered panels: the candlestick chart through the
// surface controller and the equity chart through the curve renderer.
type ChartHandler struct {
	controller *chart.Controller
	states     domain.RenderStateRepository
}

func NewChartHandler(controller *chart.Controller, states domain.RenderStateRepository) *ChartHandler {
	return &ChartHandler{controller: controller, states: states}
}

// HandlePriceSVG handles GET /api/backtest/price.svg.
func (h *ChartHandler) HandlePriceSVG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if wp, hp := parseSize(r); wp > 0 && hp > 0 {
		h.controller.Resize(wp, hp)
	}

	surface := h.controller.Surface()
	svg, ok := surface.(*chart.SVGSurface)
	if !ok || svg == nil {
		http.Error(w, "chart surface unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg.Render())
}

// HandleEquitySVG handles GET /api/backtest/equity.svg.
func (h *ChartHandler) HandleEquitySVG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	width, height := parseSize(r)
	if width <= 0 {
		width = 900
	}
	if height <= 0 {
		height = 320
	}

	state, ok := h.states.Latest()
	w.Header().Set("Content-Type", "image/svg+xml")
	if !ok || state.Statistics == nil || state.Scale == nil {
		w.Write(chart.RenderEquityPanel(nil, domain.ScaleRange{}, domain.Statistics{}, width, height))
		return
	}
	w.Write(chart.RenderEquityPanel(state.EquityCurve, *state.Scale, *state.Statistics, width, height))
}

func parseSize(r *http.Request) (int, int) {
	width, _ := strconv.Atoi(r.URL.Query().Get("w"))
	height, _ := strconv.Atoi(r.URL.Query().Get("h"))
	return width, height
}
