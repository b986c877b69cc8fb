package usecase

import (
	"fmt"
	"log"

	"backtest-backend/internal/domain"
)

// Marker palette. One binary choice per marker: profit or loss, with a
// distinct accent for breakeven stops and neutral entries.
const (
	colorProfit    = "#26a69a"
	colorLoss      = "#ef5350"
	colorBreakeven = "#f0b90b"
	colorLong      = "#2196f3"
	colorShort     = "#e91e63"
)

// ClassifyTrades maps raw trade records into timed, typed chart annotations.
// Entries must never silently vanish: a record without any usable time is
// skipped with a log trace.
func ClassifyTrades(trades []domain.Trade) []domain.Marker {
	markers := make([]domain.Marker, 0, len(trades))
	for _, t := range trades {
		if t.ExitType == domain.ExitTypeEntry {
			if m, ok := entryMarker(t); ok {
				markers = append(markers, m)
			}
			continue
		}
		if m, ok := exitMarker(t); ok {
			markers = append(markers, m)
		}
	}
	return markers
}

func entryMarker(t domain.Trade) (domain.Marker, bool) {
	ts := domain.CanonicalSeconds(t.EntryTime)
	if ts <= 0 {
		// Some strategy versions fill alternate fields for the opening leg.
		for _, fallback := range []int64{t.Timestamp, t.Time} {
			if ts = domain.CanonicalSeconds(fallback); ts > 0 {
				break
			}
		}
	}
	if ts <= 0 {
		log.Printf("markers: skipping entry with no usable time (type=%s price=%.4f)", t.Type, t.EntryPrice)
		return domain.Marker{}, false
	}

	m := domain.Marker{
		Time: ts,
		Text: fmt.Sprintf("%s %.2f", labelForSide(t.Type), t.EntryPrice),
	}
	if t.Type == domain.TradeShort {
		m.Position = domain.PositionAboveBar
		m.Shape = domain.ShapeArrowDown
		m.Color = colorShort
	} else {
		m.Position = domain.PositionBelowBar
		m.Shape = domain.ShapeArrowUp
		m.Color = colorLong
	}
	return m, true
}

func exitMarker(t domain.Trade) (domain.Marker, bool) {
	ts := domain.CanonicalSeconds(t.ExitTime)
	if ts <= 0 {
		return domain.Marker{}, false
	}

	result := 0.0
	if t.Result != nil {
		result = *t.Result
	}
	exitPrice := 0.0
	if t.ExitPrice != nil {
		exitPrice = *t.ExitPrice
	}

	m := domain.Marker{
		Time: ts,
		Text: fmt.Sprintf("%s %.2f %+.2f", t.ExitType, exitPrice, result),
	}

	switch {
	case t.ExitType == domain.ExitTypeTP1 || t.ExitType == domain.ExitTypeTP2 || t.ExitType == domain.ExitTypeTP3:
		m.Shape = domain.ShapeCircle
		m.Color = colorProfit
	case t.ExitType == domain.ExitTypeSL && t.IsBreakeven:
		m.Shape = domain.ShapeDiamond
		m.Color = colorBreakeven
		m.Text = fmt.Sprintf("BE %.2f %+.2f", exitPrice, result)
	case t.ExitType == domain.ExitTypeSL:
		m.Shape = domain.ShapeSquare
		m.Color = colorLoss
	default:
		m.Shape = domain.ShapeCircle
		if result >= 0 {
			m.Color = colorProfit
		} else {
			m.Color = colorLoss
		}
	}

	if result >= 0 {
		m.Position = domain.PositionAboveBar
	} else {
		m.Position = domain.PositionBelowBar
	}
	return m, true
}

func labelForSide(side string) string {
	if side == domain.TradeShort {
		return "SHORT"
	}
	return "LONG"
}

// OpenEntryTimes reports which entry legs have no matching exit record in the
// same batch: those positions are still open at query time. The presentation
// layer withholds their numeric fields; values are still computed internally.
func OpenEntryTimes(trades []domain.Trade) map[int64]bool {
	exits := make(map[int64]bool)
	for _, t := range trades {
		if t.ExitType != domain.ExitTypeEntry {
			exits[domain.CanonicalSeconds(t.EntryTime)] = true
		}
	}
	open := make(map[int64]bool)
	for _, t := range trades {
		if t.ExitType != domain.ExitTypeEntry {
			continue
		}
		entry := domain.CanonicalSeconds(t.EntryTime)
		if entry > 0 && !exits[entry] {
			open[entry] = true
		}
	}
	return open
}
