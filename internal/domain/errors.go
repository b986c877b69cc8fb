package domain

import "errors"

// Error taxonomy for the chart pipeline. Everything recoverable is logged and
// converted at the boundary where it occurs; none of these propagate as a
// panic past a component boundary.
var (
	// ErrDataUnavailable: no candle window succeeded. Fatal for the render cycle.
	ErrDataUnavailable = errors.New("candle data unavailable")

	// ErrNoEquityData: the equity series was empty or entirely invalid after
	// filtering. Callers render an explicit placeholder instead of an empty canvas.
	ErrNoEquityData = errors.New("no equity data")

	// ErrSurfaceUnavailable: the drawing surface never became ready within the
	// attempt ceiling. Fatal for the chart only, never for the page.
	ErrSurfaceUnavailable = errors.New("rendering surface unavailable")
)
