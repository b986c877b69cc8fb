package usecase

import (
	"math"
	"sort"

	"backtest-backend/internal/domain"
)

// NormalizeEquityCurve converts the raw equity samples into an ordered,
// deduplicated percentage-return series that agrees with the authoritative
// summary statistics.
//
// The headline number and the curve endpoint are computed by different code
// paths upstream; without the endpoint override they can silently disagree,
// which is a correctness bug here, not rounding noise. Earlier points are left
// as computed from raw values.
func NormalizeEquityCurve(samples []domain.EquitySample, stats domain.Statistics) ([]domain.EquityPoint, error) {
	if stats.InitialEquity <= 0 {
		return nil, domain.ErrNoEquityData
	}

	cleaned := make([]domain.EquitySample, 0, len(samples))
	for _, s := range samples {
		t := domain.CanonicalSeconds(s.Time)
		if t <= 0 || s.Value <= 0 || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			continue
		}
		cleaned = append(cleaned, domain.EquitySample{Time: t, Value: s.Value})
	}
	if len(cleaned) == 0 {
		return nil, domain.ErrNoEquityData
	}

	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i].Time < cleaned[j].Time })

	points := make([]domain.EquityPoint, 0, len(cleaned))
	var lastTime int64
	for _, s := range cleaned {
		if s.Time == lastTime && len(points) > 0 {
			continue
		}
		lastTime = s.Time
		points = append(points, domain.EquityPoint{
			Time:    s.Time,
			Value:   s.Value,
			Percent: (s.Value - stats.InitialEquity) / stats.InitialEquity * 100,
		})
	}

	// Reconcile the endpoint to the authoritative summary.
	last := &points[len(points)-1]
	if stats.CurrentEquity > 0 {
		last.Value = stats.CurrentEquity
	}
	last.Percent = stats.TotalPnlPercent

	return points, nil
}

// percentExtremes returns the observed min and max percent of a series.
func percentExtremes(points []domain.EquityPoint) (minPct, maxPct float64) {
	if len(points) == 0 {
		return 0, 0
	}
	minPct, maxPct = points[0].Percent, points[0].Percent
	for _, p := range points[1:] {
		if p.Percent < minPct {
			minPct = p.Percent
		}
		if p.Percent > maxPct {
			maxPct = p.Percent
		}
	}
	return minPct, maxPct
}
