package usecase

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"backtest-backend/internal/domain"
)

// BacktestOrchestrator drives the two-phase render flow: a fast candle-only
// publish so the price chart appears immediately, then a background strategy
// run scoped to the selected reporting period.
//
// Every run gets a monotonically increasing sequence number. The render-state
// repository only accepts states that are at least as new as what it holds, so
// a slow phase-2 completion that arrives after the user changed parameters is
// discarded as a stale no-op.
type BacktestOrchestrator struct {
	candles  *CandleService
	strategy domain.StrategyRunner
	states   domain.RenderStateRepository
	notifier *NotificationService // optional, may be nil
	seq      atomic.Uint64
	nowFn    func() time.Time
}

func NewBacktestOrchestrator(
	candles *CandleService,
	strategy domain.StrategyRunner,
	states domain.RenderStateRepository,
	notifier *NotificationService,
) *BacktestOrchestrator {
	return &BacktestOrchestrator{
		candles:  candles,
		strategy: strategy,
		states:   states,
		notifier: notifier,
		nowFn:    time.Now,
	}
}

// Run starts a backtest in the background and returns its sequence number.
// Re-triggering with new parameters starts a fresh sequence; the old run keeps
// going but its results can no longer be accepted.
func (o *BacktestOrchestrator) Run(p domain.BacktestParams) uint64 {
	seq := o.seq.Add(1)
	go func() {
		if err := o.run(context.Background(), seq, p); err != nil {
			log.Printf("backtest: %s %s run %d failed: %v", p.Symbol, p.Timeframe, seq, err)
		}
	}()
	return seq
}

// RunSync executes both phases on the caller's goroutine.
func (o *BacktestOrchestrator) RunSync(ctx context.Context, p domain.BacktestParams) error {
	return o.run(ctx, o.seq.Add(1), p)
}

func (o *BacktestOrchestrator) run(ctx context.Context, seq uint64, p domain.BacktestParams) error {
	// Phase 1: fast path. Publish candles before the strategy call begins so
	// the price chart never waits on the computation. This ordering is the
	// core UX contract and must not be reordered.
	candles, err := o.candles.LoadHistory(ctx, p.Symbol, p.Timeframe)
	if err != nil {
		// DataUnavailable and friends are fatal for this render cycle; the
		// caller surfaces the retry action.
		return err
	}

	o.states.Publish(domain.RenderState{
		Sequence:  seq,
		Phase:     domain.PhaseCandlesReady,
		Symbol:    p.Symbol,
		Timeframe: p.Timeframe,
		Period:    p.Period,
		Candles:   candles,
		Trades:    []domain.Trade{},
		Markers:   []domain.Marker{},
		UpdatedAt: o.nowFn().Unix(),
	})

	// Phase 2: filter to the reporting period BEFORE invoking the engine, so
	// the simulation starts from initialCapital at the period start. Rescaling
	// an all-time run afterwards would make a short period's percentages
	// depend on unrelated history.
	scoped := filterPeriod(candles, p.Period, o.nowFn())

	o.states.Publish(domain.RenderState{
		Sequence:  seq,
		Phase:     domain.PhaseStrategyRunning,
		Symbol:    p.Symbol,
		Timeframe: p.Timeframe,
		Period:    p.Period,
		Candles:   candles,
		Trades:    []domain.Trade{},
		Markers:   []domain.Marker{},
		UpdatedAt: o.nowFn().Unix(),
	})

	result, err := o.strategy.Run(ctx, scoped, p)
	if err != nil {
		log.Printf("backtest: %s %s strategy run failed: %v", p.Symbol, p.Timeframe, err)
		o.publishFailure(seq, p, candles)
		return nil
	}

	stats := result.Statistics
	if stats.InitialEquity <= 0 {
		stats.InitialEquity = p.InitialCapital
	}
	if stats.CurrentEquity <= 0 {
		stats.CurrentEquity = p.InitialCapital + stats.TotalPnl
	}

	state := domain.RenderState{
		Sequence:   seq,
		Phase:      domain.PhaseStrategyReady,
		Symbol:     p.Symbol,
		Timeframe:  p.Timeframe,
		Period:     p.Period,
		Candles:    candles, // full set: the price chart keeps its context
		Trades:     result.Trades,
		Statistics: &stats,
		Markers:    ClassifyTrades(result.Trades),
		UpdatedAt:  o.nowFn().Unix(),
	}

	points, err := NormalizeEquityCurve(result.EquityCurve, stats)
	switch {
	case err == nil:
		state.EquityCurve = points
		scale := PlanScale(points)
		state.Scale = &scale
	case errors.Is(err, domain.ErrNoEquityData):
		// The equity panel renders its explicit placeholder off the empty curve.
		log.Printf("backtest: %s %s: no usable equity data", p.Symbol, p.Timeframe)
		state.EquityCurve = []domain.EquityPoint{}
	default:
		return err
	}

	if o.states.Publish(state) && o.notifier != nil {
		o.notifier.NotifyRunFinished(p, stats)
	}
	return nil
}

// publishFailure substitutes a neutral, clearly-zeroed statistics object so
// the UI still renders a usable report. Deliberate fallback-to-neutral, not a
// silent swallow: the failure was already logged.
func (o *BacktestOrchestrator) publishFailure(seq uint64, p domain.BacktestParams, candles []domain.Candle) {
	stats := domain.NeutralStatistics(p.InitialCapital)
	accepted := o.states.Publish(domain.RenderState{
		Sequence:    seq,
		Phase:       domain.PhaseStrategyFailed,
		Symbol:      p.Symbol,
		Timeframe:   p.Timeframe,
		Period:      p.Period,
		Candles:     candles,
		Trades:      []domain.Trade{},
		Statistics:  &stats,
		EquityCurve: []domain.EquityPoint{},
		Markers:     []domain.Marker{},
		UpdatedAt:   o.nowFn().Unix(),
	})
	if accepted && o.notifier != nil {
		o.notifier.NotifyRunFailed(p)
	}
}

// filterPeriod trims candles to the selected reporting window, measured back
// from now. "all" (and anything unrecognized) keeps the full set.
func filterPeriod(candles []domain.Candle, period string, now time.Time) []domain.Candle {
	var days int
	switch period {
	case "30":
		days = 30
	case "90":
		days = 90
	case "365":
		days = 365
	default:
		return candles
	}
	cutoff := now.AddDate(0, 0, -days).Unix()
	for i, c := range candles {
		if c.Timestamp >= cutoff {
			return candles[i:]
		}
	}
	return nil
}
