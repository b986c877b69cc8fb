package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-backend/internal/domain"
	"backtest-backend/internal/repository"
)

// fakeStrategy delegates to a test function.
type fakeStrategy struct {
	fn func(candles []domain.Candle, p domain.BacktestParams) (*domain.BacktestResult, error)
}

func (f *fakeStrategy) Run(_ context.Context, candles []domain.Candle, p domain.BacktestParams) (*domain.BacktestResult, error) {
	return f.fn(candles, p)
}

// recordingStates wraps the real repository and keeps every publish attempt
// with its acceptance verdict.
type recordingStates struct {
	inner *repository.InMemoryRenderStateRepository

	mu        sync.Mutex
	published []domain.RenderState
	accepted  []bool
}

func newRecordingStates() *recordingStates {
	return &recordingStates{inner: repository.NewInMemoryRenderStateRepository()}
}

func (r *recordingStates) Publish(state domain.RenderState) bool {
	ok := r.inner.Publish(state)
	r.mu.Lock()
	r.published = append(r.published, state)
	r.accepted = append(r.accepted, ok)
	r.mu.Unlock()
	return ok
}

func (r *recordingStates) Latest() (domain.RenderState, bool) {
	return r.inner.Latest()
}

func (r *recordingStates) phases() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.published))
	for i, s := range r.published {
		out[i] = s.Phase
	}
	return out
}

func steadySource(candles ...domain.Candle) *fakeSource {
	return &fakeSource{fn: func(q domain.CandleQuery) ([]domain.Candle, error) {
		return candles, nil
	}}
}

func newTestOrchestrator(src domain.CandleSource, strat domain.StrategyRunner, states domain.RenderStateRepository, now time.Time) *BacktestOrchestrator {
	candles := NewCandleService(src, nil, 1)
	candles.nowFn = func() time.Time { return now }
	o := NewBacktestOrchestrator(candles, strat, states, nil)
	o.nowFn = func() time.Time { return now }
	return o
}

func TestRunPublishesCandlesBeforeStrategy(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	states := newRecordingStates()

	strat := &fakeStrategy{fn: func(candles []domain.Candle, p domain.BacktestParams) (*domain.BacktestResult, error) {
		// By the time the engine runs, the price chart must already be fed.
		latest, ok := states.Latest()
		require.True(t, ok)
		require.Equal(t, domain.PhaseStrategyRunning, latest.Phase)
		require.NotEmpty(t, latest.Candles)
		require.Empty(t, latest.Trades)

		return &domain.BacktestResult{
			Statistics: domain.Statistics{
				InitialEquity: 1000, CurrentEquity: 1100,
				TotalPnl: 100, TotalPnlPercent: 10, TotalTrades: 1,
			},
			EquityCurve: []domain.EquitySample{
				{Time: 100, Value: 1000},
				{Time: 200, Value: 1100},
			},
		}, nil
	}}

	o := newTestOrchestrator(steadySource(candleAt(100, 1), candleAt(200, 2)), strat, states, now)
	err := o.RunSync(context.Background(), domain.BacktestParams{Symbol: "BTCUSDT", Timeframe: "1h", Period: "all", InitialCapital: 1000})
	require.NoError(t, err)

	assert.Equal(t, []string{
		domain.PhaseCandlesReady,
		domain.PhaseStrategyRunning,
		domain.PhaseStrategyReady,
	}, states.phases())

	final, ok := states.Latest()
	require.True(t, ok)
	require.NotNil(t, final.Statistics)
	assert.Equal(t, 10.0, final.Statistics.TotalPnlPercent)
	require.NotNil(t, final.Scale)
	require.NotEmpty(t, final.EquityCurve)
	assert.Equal(t, 10.0, final.EquityCurve[len(final.EquityCurve)-1].Percent)
}

func TestRunStrategyFailurePublishesNeutralReport(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	states := newRecordingStates()
	strat := &fakeStrategy{fn: func(_ []domain.Candle, _ domain.BacktestParams) (*domain.BacktestResult, error) {
		return nil, errors.New("engine exploded")
	}}

	o := newTestOrchestrator(steadySource(candleAt(100, 1)), strat, states, now)
	err := o.RunSync(context.Background(), domain.BacktestParams{Symbol: "BTCUSDT", Timeframe: "1h", InitialCapital: 5000})
	require.NoError(t, err, "a strategy failure is not a run failure")

	final, ok := states.Latest()
	require.True(t, ok)
	assert.Equal(t, domain.PhaseStrategyFailed, final.Phase)
	require.NotNil(t, final.Statistics)
	assert.Equal(t, 0, final.Statistics.TotalTrades)
	assert.Equal(t, 5000.0, final.Statistics.InitialEquity)
	assert.Equal(t, 5000.0, final.Statistics.CurrentEquity)
	assert.NotEmpty(t, final.Candles, "candles survive a failed computation")
}

func TestRunCandleFailureIsFatal(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	states := newRecordingStates()
	src := &fakeSource{fn: func(q domain.CandleQuery) ([]domain.Candle, error) {
		return nil, errors.New("endpoint down")
	}}
	strat := &fakeStrategy{fn: func(_ []domain.Candle, _ domain.BacktestParams) (*domain.BacktestResult, error) {
		t.Fatal("strategy must not run without candles")
		return nil, nil
	}}

	o := newTestOrchestrator(src, strat, states, now)
	err := o.RunSync(context.Background(), domain.BacktestParams{Symbol: "BTCUSDT", Timeframe: "1h"})
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.Empty(t, states.phases())
}

func TestRunFiltersPeriodBeforeStrategy(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	old := candleAt(now.AddDate(0, 0, -60).Unix(), 1)
	recent := candleAt(now.AddDate(0, 0, -10).Unix(), 2)

	var sawCandles []domain.Candle
	states := newRecordingStates()
	strat := &fakeStrategy{fn: func(candles []domain.Candle, _ domain.BacktestParams) (*domain.BacktestResult, error) {
		sawCandles = candles
		return &domain.BacktestResult{
			Statistics: domain.Statistics{InitialEquity: 1000, CurrentEquity: 1000},
		}, nil
	}}

	o := newTestOrchestrator(steadySource(old, recent), strat, states, now)
	err := o.RunSync(context.Background(), domain.BacktestParams{Symbol: "BTCUSDT", Timeframe: "1h", Period: "30", InitialCapital: 1000})
	require.NoError(t, err)

	require.Len(t, sawCandles, 1, "engine sees only the reporting period")
	assert.Equal(t, recent.Timestamp, sawCandles[0].Timestamp)

	final, ok := states.Latest()
	require.True(t, ok)
	assert.Len(t, final.Candles, 2, "the price chart keeps the full history")
}

func TestRunStaleCompletionDiscarded(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	states := newRecordingStates()

	release := make(chan struct{})
	running := make(chan struct{})
	strat := &fakeStrategy{fn: func(_ []domain.Candle, p domain.BacktestParams) (*domain.BacktestResult, error) {
		if p.Symbol == "SLOW" {
			close(running)
			<-release
		}
		return &domain.BacktestResult{
			Statistics: domain.Statistics{
				InitialEquity: 1000, CurrentEquity: 1000, TotalTrades: len(p.Symbol),
			},
		}, nil
	}}

	o := newTestOrchestrator(steadySource(candleAt(100, 1)), strat, states, now)

	done := make(chan error, 1)
	go func() {
		done <- o.RunSync(context.Background(), domain.BacktestParams{Symbol: "SLOW", Timeframe: "1h", InitialCapital: 1000})
	}()
	<-running

	// A newer request supersedes the in-flight run.
	err := o.RunSync(context.Background(), domain.BacktestParams{Symbol: "FRESH", Timeframe: "1h", InitialCapital: 1000})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)

	final, ok := states.Latest()
	require.True(t, ok)
	assert.Equal(t, "FRESH", final.Symbol)
	assert.Equal(t, uint64(2), final.Sequence)

	// The slow run's completion was offered and rejected.
	states.mu.Lock()
	defer states.mu.Unlock()
	rejected := false
	for i, s := range states.published {
		if s.Symbol == "SLOW" && s.Phase == domain.PhaseStrategyReady {
			rejected = rejected || !states.accepted[i]
		}
	}
	assert.True(t, rejected)
}

func TestFilterPeriod(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := []domain.Candle{
		candleAt(now.AddDate(0, 0, -400).Unix(), 1),
		candleAt(now.AddDate(0, 0, -100).Unix(), 2),
		candleAt(now.AddDate(0, 0, -20).Unix(), 3),
	}

	assert.Len(t, filterPeriod(candles, "all", now), 3)
	assert.Len(t, filterPeriod(candles, "unknown", now), 3)
	assert.Len(t, filterPeriod(candles, "365", now), 2)
	assert.Len(t, filterPeriod(candles, "90", now), 1)
	assert.Len(t, filterPeriod(candles, "30", now), 1)
	assert.Empty(t, filterPeriod(candles[:1], "30", now))
}
