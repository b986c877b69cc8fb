package domain

// Trade direction values.
const (
	TradeLong  = "long"
	TradeShort = "short"
)

// Exit type values produced by the strategy service. ExitTypeEntry marks the
// opening leg of a position; it carries no realized P&L. One or more later
// records sharing the same EntryTime represent partial or full exits.
const (
	ExitTypeEntry = "ENTRY"
	ExitTypeTP1   = "TP1"
	ExitTypeTP2   = "TP2"
	ExitTypeTP3   = "TP3"
	ExitTypeSL    = "SL"
)

// Trade is one record of the strategy result. Times are epoch seconds after
// canonicalization; the upstream service is allowed to send milliseconds.
// Timestamp and Time are fallback fields some strategy versions populate
// instead of EntryTime.
type Trade struct {
	EntryTime           int64    `json:"entryTime"`
	ExitTime            int64    `json:"exitTime,omitempty"`
	Type                string   `json:"type"`
	EntryPrice          float64  `json:"entryPrice"`
	ExitPrice           *float64 `json:"exitPrice,omitempty"`
	Result              *float64 `json:"result,omitempty"`
	ExitType            string   `json:"exitType"`
	IsBreakeven         bool     `json:"isBreakeven"`
	PositionSizeAtEntry float64  `json:"positionSizeAtEntry"`
	ExitPositionSize    float64  `json:"exitPositionSize"`
	Timestamp           int64    `json:"timestamp,omitempty"`
	Time                int64    `json:"time,omitempty"`
}

// EquitySample is one raw point of the simulated account value. Not guaranteed
// sorted or deduplicated on input.
type EquitySample struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// EquityPoint is a normalized equity sample: canonical time, reconciled value
// and the percentage return relative to initial equity.
type EquityPoint struct {
	Time    int64   `json:"time"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// Statistics is the authoritative summary produced by the strategy service.
// The last point of any rendered equity curve must agree with CurrentEquity
// and TotalPnlPercent exactly.
type Statistics struct {
	InitialEquity   float64 `json:"initialEquity"`
	CurrentEquity   float64 `json:"currentEquity"`
	TotalPnl        float64 `json:"totalPnl"`
	TotalPnlPercent float64 `json:"totalPnlPercent"`
	MaxDrawdown     float64 `json:"maxDrawdown"`
	MaxDrawdownUsdt float64 `json:"maxDrawdownUsdt"`
	WinRate         float64 `json:"winRate"`
	ProfitFactor    float64 `json:"profitFactor"`
	TotalTrades     int     `json:"totalTrades"`
	WinningTrades   int     `json:"winningTrades"`
	LosingTrades    int     `json:"losingTrades"`
}

// NeutralStatistics is the fallback published when the strategy service fails:
// zeroed counters with equity pinned to the requested capital, so the report
// stays well-formed instead of showing a broken "no data" state.
func NeutralStatistics(initialCapital float64) Statistics {
	return Statistics{
		InitialEquity: initialCapital,
		CurrentEquity: initialCapital,
	}
}

// BacktestParams identifies one backtest request.
type BacktestParams struct {
	Symbol              string  `json:"symbol"`
	Timeframe           string  `json:"timeframe"`
	Period              string  `json:"period"` // "30" | "90" | "365" | "all" days back from now
	InitialCapital      float64 `json:"initialCapital"`
	PositionSizePercent float64 `json:"positionSizePercent"`
}

// BacktestResult is the strategy service response payload.
type BacktestResult struct {
	Trades      []Trade        `json:"trades"`
	Statistics  Statistics     `json:"statistics"`
	EquityCurve []EquitySample `json:"equityCurve,omitempty"`
}

// Render phases, in the order the orchestrator moves through them.
const (
	PhaseIdle            = "idle"
	PhaseCandlesLoading  = "candles_loading"
	PhaseCandlesReady    = "candles_ready"
	PhaseStrategyRunning = "strategy_running"
	PhaseStrategyReady   = "strategy_ready"
	PhaseStrategyFailed  = "strategy_failed"
)

// RenderState is the single snapshot the chart page consumes. Phase 1 publishes
// candles with empty strategy fields; phase 2 fills in the rest. Sequence is a
// monotonically increasing request identity used to discard stale completions.
type RenderState struct {
	Sequence    uint64         `json:"sequence"`
	Phase       string         `json:"phase"`
	Symbol      string         `json:"symbol"`
	Timeframe   string         `json:"timeframe"`
	Period      string         `json:"period"`
	Candles     []Candle       `json:"candles"`
	Trades      []Trade        `json:"trades"`
	Statistics  *Statistics    `json:"statistics"`
	EquityCurve []EquityPoint  `json:"equityCurve"`
	Scale       *ScaleRange    `json:"scale,omitempty"`
	Markers     []Marker       `json:"markers"`
	UpdatedAt   int64          `json:"updatedAt"`
}
