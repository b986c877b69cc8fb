package chart

import (
	"fmt"
	"strings"

	"backtest-backend/internal/domain"
)

// Point is a pixel-space coordinate inside the equity panel.
type Point struct {
	X float64
	Y float64
}

// MapToPixels projects normalized equity points through the planned scale into
// a pixel box. X spreads samples across the time span; Y maps percent between
// the display bounds (larger percent = higher on screen = smaller Y).
func MapToPixels(points []domain.EquityPoint, sc domain.ScaleRange, width, height float64) []Point {
	if len(points) == 0 || width <= 0 || height <= 0 {
		return nil
	}
	t0 := points[0].Time
	tN := points[len(points)-1].Time
	tSpan := float64(tN - t0)
	if tSpan <= 0 {
		tSpan = 1
	}
	pSpan := sc.Max - sc.Min
	if pSpan <= 0 {
		pSpan = 1
	}

	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{
			X: float64(p.Time-t0) / tSpan * width,
			Y: height - (p.Percent-sc.Min)/pSpan*height,
		}
	}
	return out
}

// SmoothPath builds a cubic path through the points using Catmull-Rom control
// points, clamped at the series boundaries by repeating the endpoints. Equity
// curves at this granularity should read as continuous trends, not
// piecewise-linear noise.
func SmoothPath(pts []Point) string {
	if len(pts) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M %.2f %.2f", pts[0].X, pts[0].Y)
	if len(pts) == 1 {
		return b.String()
	}
	for i := 0; i < len(pts)-1; i++ {
		p0 := pts[maxInt(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[minInt(i+2, len(pts)-1)]

		c1x := p1.X + (p2.X-p0.X)/6
		c1y := p1.Y + (p2.Y-p0.Y)/6
		c2x := p2.X - (p3.X-p1.X)/6
		c2y := p2.Y - (p3.Y-p1.Y)/6

		fmt.Fprintf(&b, " C %.2f %.2f, %.2f %.2f, %.2f %.2f", c1x, c1y, c2x, c2y, p2.X, p2.Y)
	}
	return b.String()
}

// FillPath closes the smoothed path against the panel's bottom edge, not the
// zero line, so the fill always reaches the chart floor wherever the
// conceptual zero sits.
func FillPath(pts []Point, height float64) string {
	if len(pts) == 0 {
		return ""
	}
	path := SmoothPath(pts)
	last := pts[len(pts)-1]
	first := pts[0]
	return fmt.Sprintf("%s L %.2f %.2f L %.2f %.2f Z", path, last.X, height, first.X, height)
}

// Palette is the uniform color set for line, glow, fill gradient and the
// final-value label background.
type Palette struct {
	Line  string
	Glow  string
	Fill  string
	Label string
}

var (
	positivePalette = Palette{Line: "#26a69a", Glow: "#26a69a66", Fill: "#26a69a33", Label: "#1d7d74"}
	negativePalette = Palette{Line: "#ef5350", Glow: "#ef535066", Fill: "#ef535033", Label: "#b23c3a"}
)

// PaletteFor makes the single binary color choice for the equity panel.
func PaletteFor(currentEquity, initialEquity float64) Palette {
	if currentEquity >= initialEquity {
		return positivePalette
	}
	return negativePalette
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
