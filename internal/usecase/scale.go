package usecase

import (
	"math"
	"sort"

	"backtest-backend/internal/domain"
)

// TickPlanner turns the achieved percent extremes (plus the current value)
// into a display scale. Two named strategies implement it, selected by a
// single hasNegative predicate instead of branching inline through the
// scaling and rendering code.
type TickPlanner interface {
	Plan(minPct, maxPct, currentPct float64) domain.ScaleRange
}

// PlanScale picks the right tick strategy for a normalized percent series.
func PlanScale(points []domain.EquityPoint) domain.ScaleRange {
	minPct, maxPct := percentExtremes(points)
	currentPct := 0.0
	if len(points) > 0 {
		currentPct = points[len(points)-1].Percent
	}
	var planner TickPlanner
	if minPct < 0 {
		planner = mixedSignPlan{}
	} else {
		planner = nonNegativePlan{}
	}
	return planner.Plan(minPct, maxPct, currentPct)
}

// displayMargin is the visual breathing room added to the display bounds only.
// Tick values never receive it: margin keeps the curve off the chart edge,
// tick suppression keeps the axis from implying an unreached level.
func displayMargin(rng float64) float64 {
	m := rng * 0.02
	if m < 0.25 {
		m = 0.25
	}
	return m
}

// nonNegativePlan handles series that never dipped below the starting capital.
// The zero line sits at the bottom and ticks climb from 0 toward the real
// maximum, never past it.
type nonNegativePlan struct{}

func (nonNegativePlan) Plan(minPct, maxPct, currentPct float64) domain.ScaleRange {
	step := 200.0
	switch {
	case maxPct < 10:
		step = 1
	case maxPct < 50:
		step = 5
	case maxPct < 200:
		step = 20
	case maxPct < 1000:
		step = 100
	}

	var ticks []float64
	for v := 0.0; v <= maxPct+1e-9; v += step {
		ticks = append(ticks, v)
	}
	if currentPct > 0 && currentPct <= maxPct+1e-9 && !hasTick(ticks, currentPct) {
		ticks = append(ticks, currentPct)
		sort.Float64s(ticks)
	}

	return domain.ScaleRange{
		Min:         0,
		Max:         maxPct + displayMargin(maxPct),
		TickValues:  ticks,
		ZeroLine:    domain.ZeroLineBottom,
		HasNegative: false,
	}
}

// mixedSignPlan handles series that went underwater at some point. The top of
// the chart is pinned to the achieved maximum and ticks are generated across
// [minPct, maxPct] only, with 0 force-included when the range straddles it.
type mixedSignPlan struct{}

func (mixedSignPlan) Plan(minPct, maxPct, currentPct float64) domain.ScaleRange {
	rng := maxPct - minPct
	step := 50.0
	switch {
	case rng < 20:
		step = 5
	case rng < 100:
		step = 20
	}

	ticks := []float64{minPct, maxPct}
	for v := math.Ceil(minPct/step) * step; v <= maxPct+1e-9; v += step {
		if !hasTick(ticks, v) {
			ticks = append(ticks, v)
		}
	}
	if minPct <= 0 && maxPct >= 0 && !hasTick(ticks, 0) {
		ticks = append(ticks, 0)
	}
	sort.Float64s(ticks)

	margin := displayMargin(rng)
	return domain.ScaleRange{
		Min:         minPct - margin,
		Max:         maxPct + margin,
		TickValues:  ticks,
		ZeroLine:    domain.ZeroLineTop,
		HasNegative: true,
	}
}

func hasTick(ticks []float64, v float64) bool {
	for _, t := range ticks {
		if math.Abs(t-v) < 1e-9 {
			return true
		}
	}
	return false
}
