package usecase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-backend/internal/domain"
)

func TestNormalizeEquityCurveReconcilesEndpoint(t *testing.T) {
	samples := []domain.EquitySample{
		{Time: 100, Value: 1000},
		{Time: 200, Value: 1100},
		{Time: 300, Value: 1240}, // raw endpoint drifts from the summary
	}
	stats := domain.Statistics{InitialEquity: 1000, CurrentEquity: 1250, TotalPnlPercent: 25}

	points, err := NormalizeEquityCurve(samples, stats)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.InDelta(t, 0, points[0].Percent, 1e-9)
	assert.InDelta(t, 10, points[1].Percent, 1e-9)

	last := points[len(points)-1]
	assert.Equal(t, 1250.0, last.Value)
	assert.Equal(t, 25.0, last.Percent)
}

func TestNormalizeEquityCurveCanonicalizesMilliseconds(t *testing.T) {
	samples := []domain.EquitySample{
		{Time: 1_700_000_060_000, Value: 1100}, // milliseconds
		{Time: 1_700_000_000, Value: 1000},     // seconds
	}
	stats := domain.Statistics{InitialEquity: 1000, CurrentEquity: 1100, TotalPnlPercent: 10}

	points, err := NormalizeEquityCurve(samples, stats)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, int64(1_700_000_000), points[0].Time)
	assert.Equal(t, int64(1_700_000_060), points[1].Time)
}

func TestNormalizeEquityCurveDropsInvalidSamples(t *testing.T) {
	samples := []domain.EquitySample{
		{Time: 0, Value: 1000},
		{Time: 100, Value: -5},
		{Time: 200, Value: math.NaN()},
		{Time: 300, Value: math.Inf(1)},
		{Time: 400, Value: 1050},
		{Time: 400, Value: 1060}, // duplicate time, first kept
	}
	stats := domain.Statistics{InitialEquity: 1000, CurrentEquity: 1050, TotalPnlPercent: 5}

	points, err := NormalizeEquityCurve(samples, stats)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, int64(400), points[0].Time)
	assert.Equal(t, 1050.0, points[0].Value)
}

func TestNormalizeEquityCurveNoData(t *testing.T) {
	_, err := NormalizeEquityCurve(nil, domain.Statistics{InitialEquity: 1000})
	assert.ErrorIs(t, err, domain.ErrNoEquityData)

	_, err = NormalizeEquityCurve(
		[]domain.EquitySample{{Time: 100, Value: 1000}},
		domain.Statistics{InitialEquity: 0},
	)
	assert.ErrorIs(t, err, domain.ErrNoEquityData)
}

func TestNormalizeEquityCurveSortsByTime(t *testing.T) {
	samples := []domain.EquitySample{
		{Time: 300, Value: 1200},
		{Time: 100, Value: 1000},
		{Time: 200, Value: 1100},
	}
	stats := domain.Statistics{InitialEquity: 1000, CurrentEquity: 1200, TotalPnlPercent: 20}

	points, err := NormalizeEquityCurve(samples, stats)
	require.NoError(t, err)
	require.Len(t, points, 3)
	for i := 1; i < len(points); i++ {
		assert.Greater(t, points[i].Time, points[i-1].Time)
	}
}
