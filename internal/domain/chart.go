package domain

// Zero-line placements for the equity axis.
const (
	ZeroLineTop    = "top"
	ZeroLineBottom = "bottom"
)

// ScaleRange is the planned Y-axis for the equity chart, in percent. Min/Max
// are display bounds and may carry a small visual margin; TickValues never
// leave the really achieved [minPercent, maxPercent] range, so the axis cannot
// imply a level the strategy did not reach.
type ScaleRange struct {
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
	TickValues  []float64 `json:"tickValues"`
	ZeroLine    string    `json:"zeroLine"`
	HasNegative bool      `json:"hasNegative"`
}

// Marker positions and shapes understood by the charting surface.
const (
	PositionAboveBar = "aboveBar"
	PositionBelowBar = "belowBar"

	ShapeArrowUp   = "arrowUp"
	ShapeArrowDown = "arrowDown"
	ShapeCircle    = "circle"
	ShapeSquare    = "square"
	ShapeDiamond   = "diamond"
)

// Marker is a visual trade annotation on the candlestick chart. Pure view
// artifact: discarded and rebuilt on every data refresh.
type Marker struct {
	Time     int64  `json:"time"`
	Position string `json:"position"`
	Color    string `json:"color"`
	Shape    string `json:"shape"`
	Text     string `json:"text"`
}
