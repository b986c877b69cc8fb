package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-backend/internal/domain"
)

func pctPoints(percents ...float64) []domain.EquityPoint {
	points := make([]domain.EquityPoint, len(percents))
	for i, p := range percents {
		points[i] = domain.EquityPoint{Time: int64(i + 1), Percent: p}
	}
	return points
}

func TestPlanScaleNonNegativeAppendsCurrentValue(t *testing.T) {
	// Peaked at +6.3% which is also the final value: integer ticks up to 6,
	// then the exact current value as its own tick.
	sc := PlanScale(pctPoints(0, 2.4, 6.3))

	assert.False(t, sc.HasNegative)
	assert.Equal(t, domain.ZeroLineBottom, sc.ZeroLine)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 6.3}, sc.TickValues)
	assert.Equal(t, 0.0, sc.Min)
	// Margin widens the bounds but never produces a tick past the maximum.
	assert.Greater(t, sc.Max, 6.3)
}

func TestPlanScaleNonNegativeNoDuplicateCurrentTick(t *testing.T) {
	sc := PlanScale(pctPoints(0, 3, 5))
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5}, sc.TickValues)
}

func TestPlanScaleMixedSign(t *testing.T) {
	// Dipped to -4%, peaked at +18%: range 22 selects a 20 step, so the
	// endpoint ticks and the forced zero carry the axis.
	sc := PlanScale(pctPoints(0, -4, 18))

	assert.True(t, sc.HasNegative)
	assert.Equal(t, domain.ZeroLineTop, sc.ZeroLine)
	assert.Contains(t, sc.TickValues, 0.0)
	assert.Contains(t, sc.TickValues, -4.0)
	assert.Contains(t, sc.TickValues, 18.0)
	for _, tick := range sc.TickValues {
		assert.GreaterOrEqual(t, tick, -4.0)
		assert.LessOrEqual(t, tick, 18.0)
	}
	assert.Less(t, sc.Min, -4.0)
	assert.Greater(t, sc.Max, 18.0)
}

func TestPlanScaleTickSuppression(t *testing.T) {
	cases := []struct {
		name     string
		percents []float64
	}{
		{"small gain", []float64{0, 1.2, 3.7}},
		{"large gain", []float64{0, 40, 173.4}},
		{"huge gain", []float64{0, 500, 1234.5}},
		{"shallow drawdown", []float64{0, -2.1, 7.9}},
		{"deep drawdown", []float64{0, -61.5, 140.2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			points := pctPoints(tc.percents...)
			minPct, maxPct := percentExtremes(points)
			sc := PlanScale(points)
			require.NotEmpty(t, sc.TickValues)
			for _, tick := range sc.TickValues {
				assert.LessOrEqual(t, tick, maxPct+1e-9, "tick above achieved maximum")
				if sc.HasNegative {
					assert.GreaterOrEqual(t, tick, minPct-1e-9, "tick below achieved minimum")
				} else {
					assert.GreaterOrEqual(t, tick, 0.0)
				}
			}
		})
	}
}

func TestPlanScaleTicksAscending(t *testing.T) {
	sc := PlanScale(pctPoints(0, -13.4, 45.2, 30))
	for i := 1; i < len(sc.TickValues); i++ {
		assert.Greater(t, sc.TickValues[i], sc.TickValues[i-1])
	}
}

func TestDisplayMarginFloor(t *testing.T) {
	assert.Equal(t, 0.25, displayMargin(1)) // 2% of 1 is below the floor
	assert.InDelta(t, 4.0, displayMargin(200), 1e-9)
	assert.InDelta(t, 20.0, displayMargin(1000), 1e-9)
}
