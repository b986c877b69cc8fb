package domain

import "context"

// CandleSource issues a single window request against the market-data endpoint.
type CandleSource interface {
	FetchWindow(ctx context.Context, q CandleQuery) ([]Candle, error)
}

// CandleCache persists merged candle series for cheap chart reloads.
type CandleCache interface {
	SaveCandles(ctx context.Context, symbol, timeframe string, candles []Candle) error
	LoadRange(ctx context.Context, symbol, timeframe string, from, to int64) ([]Candle, error)
}

// StrategyRunner invokes the external backtest computation service. The engine
// itself is an opaque collaborator: candles and parameters in, trades plus
// statistics plus an equity series out.
type StrategyRunner interface {
	Run(ctx context.Context, candles []Candle, p BacktestParams) (*BacktestResult, error)
}

// RenderStateRepository is the single-slot "latest accepted result". Publish
// reports whether the state was accepted; states carrying an older sequence
// than the stored one are discarded as stale no-ops.
type RenderStateRepository interface {
	Publish(state RenderState) bool
	Latest() (RenderState, bool)
}
