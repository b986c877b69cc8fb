package chart

import (
	"bytes"
	"fmt"
	"sync"

	"backtest-backend/internal/domain"
)

// Panel geometry shared by both charts.
const (
	marginLeft   = 48
	marginRight  = 16
	marginTop    = 20
	marginBottom = 28

	bgColor   = "#0b0f17"
	gridColor = "#1f2837"
	textColor = "#8b97a8"
	upColor   = "#26a69a"
	downColor = "#ef5350"
)

// SVGSurface is the shipped Surface implementation: it holds the latest bound
// series and renders a candlestick panel with markers on demand.
type SVGSurface struct {
	mu      sync.RWMutex
	width   int
	height  int
	candles []domain.Candle
	markers []domain.Marker
	fitFrom int64
	fitTo   int64
}

func NewSVGSurface(width, height int) *SVGSurface {
	return &SVGSurface{width: width, height: height}
}

func (s *SVGSurface) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

func (s *SVGSurface) SetCandles(candles []domain.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candles = append([]domain.Candle(nil), candles...)
	return nil
}

func (s *SVGSurface) SetMarkers(markers []domain.Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = append([]domain.Marker(nil), markers...)
	return nil
}

func (s *SVGSurface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width > 0 {
		s.width = width
	}
	if height > 0 {
		s.height = height
	}
}

// FitContent pins the visible time range to the bound series.
func (s *SVGSurface) FitContent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.candles) == 0 {
		s.fitFrom, s.fitTo = 0, 0
		return
	}
	s.fitFrom = s.candles[0].Timestamp
	s.fitTo = s.candles[len(s.candles)-1].Timestamp
}

// Render draws the candlestick panel with trade markers.
func (s *SVGSurface) Render() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.candles) == 0 {
		return renderPlaceholder(s.width, s.height, "No candle data")
	}

	plotW := float64(s.width - marginLeft - marginRight)
	plotH := float64(s.height - marginTop - marginBottom)

	lo, hi := s.candles[0].Low, s.candles[0].High
	for _, c := range s.candles {
		if c.Low < lo {
			lo = c.Low
		}
		if c.High > hi {
			hi = c.High
		}
	}
	from, to := s.fitFrom, s.fitTo
	if to <= from {
		from = s.candles[0].Timestamp
		to = s.candles[len(s.candles)-1].Timestamp
	}
	tSpan := float64(to - from)
	if tSpan <= 0 {
		tSpan = 1
	}
	pSpan := hi - lo
	if pSpan <= 0 {
		pSpan = 1
	}
	x := func(ts int64) float64 { return float64(ts-from) / tSpan * plotW }
	y := func(price float64) float64 { return plotH - (price-lo)/pSpan*plotH }

	bodyW := plotW / float64(len(s.candles)) * 0.7
	if bodyW < 1 {
		bodyW = 1
	}

	var b bytes.Buffer
	writeHeader(&b, s.width, s.height)
	fmt.Fprintf(&b, "<g transform='translate(%d,%d)'>", marginLeft, marginTop)

	for _, c := range s.candles {
		cx := x(c.Timestamp)
		color := upColor
		if c.Close < c.Open {
			color = downColor
		}
		top, bot := y(c.Open), y(c.Close)
		if bot < top {
			top, bot = bot, top
		}
		fmt.Fprintf(&b, "<line x1='%.2f' y1='%.2f' x2='%.2f' y2='%.2f' stroke='%s' stroke-width='1'/>",
			cx, y(c.High), cx, y(c.Low), color)
		fmt.Fprintf(&b, "<rect x='%.2f' y='%.2f' width='%.2f' height='%.2f' fill='%s'/>",
			cx-bodyW/2, top, bodyW, bot-top+0.5, color)
	}

	byTime := make(map[int64]domain.Candle, len(s.candles))
	for _, c := range s.candles {
		byTime[c.Timestamp] = c
	}
	for _, m := range s.markers {
		cdl, ok := byTime[m.Time]
		if !ok {
			continue
		}
		mx := x(m.Time)
		my := y(cdl.High) - 8
		if m.Position == domain.PositionBelowBar {
			my = y(cdl.Low) + 8
		}
		writeMarkerShape(&b, m, mx, my)
	}

	b.WriteString("</g></svg>")
	return b.Bytes()
}

func writeMarkerShape(b *bytes.Buffer, m domain.Marker, x, y float64) {
	switch m.Shape {
	case domain.ShapeArrowUp:
		fmt.Fprintf(b, "<polygon points='%.2f,%.2f %.2f,%.2f %.2f,%.2f' fill='%s'><title>%s</title></polygon>",
			x, y-4, x-4, y+4, x+4, y+4, m.Color, m.Text)
	case domain.ShapeArrowDown:
		fmt.Fprintf(b, "<polygon points='%.2f,%.2f %.2f,%.2f %.2f,%.2f' fill='%s'><title>%s</title></polygon>",
			x, y+4, x-4, y-4, x+4, y-4, m.Color, m.Text)
	case domain.ShapeSquare:
		fmt.Fprintf(b, "<rect x='%.2f' y='%.2f' width='7' height='7' fill='%s'><title>%s</title></rect>",
			x-3.5, y-3.5, m.Color, m.Text)
	case domain.ShapeDiamond:
		fmt.Fprintf(b, "<polygon points='%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f' fill='%s'><title>%s</title></polygon>",
			x, y-5, x+5, y, x, y+5, x-5, y, m.Color, m.Text)
	default:
		fmt.Fprintf(b, "<circle cx='%.2f' cy='%.2f' r='4' fill='%s'><title>%s</title></circle>",
			x, y, m.Color, m.Text)
	}
}

// RenderEquityPanel draws the percentage-return curve: gridlines at the
// planned ticks, the smoothed path with its glow and fill, and the
// final-value label. An empty series gets the explicit placeholder the error
// policy requires, never a blank canvas.
func RenderEquityPanel(points []domain.EquityPoint, sc domain.ScaleRange, stats domain.Statistics, width, height int) []byte {
	if len(points) == 0 {
		return renderPlaceholder(width, height, "No equity data for this period")
	}

	plotW := float64(width - marginLeft - marginRight)
	plotH := float64(height - marginTop - marginBottom)
	pal := PaletteFor(stats.CurrentEquity, stats.InitialEquity)
	pts := MapToPixels(points, sc, plotW, plotH)

	pSpan := sc.Max - sc.Min
	if pSpan <= 0 {
		pSpan = 1
	}
	yFor := func(pct float64) float64 { return plotH - (pct-sc.Min)/pSpan*plotH }

	var b bytes.Buffer
	writeHeader(&b, width, height)
	fmt.Fprintf(&b, "<g transform='translate(%d,%d)'>", marginLeft, marginTop)

	for _, tick := range sc.TickValues {
		ty := yFor(tick)
		stroke := gridColor
		if tick == 0 {
			stroke = textColor
		}
		fmt.Fprintf(&b, "<line x1='0' y1='%.2f' x2='%.2f' y2='%.2f' stroke='%s' stroke-width='0.5'/>",
			ty, plotW, ty, stroke)
		fmt.Fprintf(&b, "<text x='-6' y='%.2f' fill='%s' font-size='10' text-anchor='end' dominant-baseline='middle'>%.1f%%</text>",
			ty, textColor, tick)
	}

	fmt.Fprintf(&b, "<path d='%s' fill='%s' stroke='none'/>", FillPath(pts, plotH), pal.Fill)
	fmt.Fprintf(&b, "<path d='%s' fill='none' stroke='%s' stroke-width='5' opacity='0.35'/>", SmoothPath(pts), pal.Glow)
	fmt.Fprintf(&b, "<path d='%s' fill='none' stroke='%s' stroke-width='2'/>", SmoothPath(pts), pal.Line)

	last := pts[len(pts)-1]
	label := fmt.Sprintf("%+.2f%%", points[len(points)-1].Percent)
	fmt.Fprintf(&b, "<rect x='%.2f' y='%.2f' width='58' height='18' rx='4' fill='%s'/>",
		last.X-58, last.Y-26, pal.Label)
	fmt.Fprintf(&b, "<text x='%.2f' y='%.2f' fill='#ffffff' font-size='11' text-anchor='middle'>%s</text>",
		last.X-29, last.Y-13, label)

	b.WriteString("</g></svg>")
	return b.Bytes()
}

func writeHeader(b *bytes.Buffer, width, height int) {
	fmt.Fprintf(b, "<svg xmlns='http://www.w3.org/2000/svg' width='%d' height='%d' viewBox='0 0 %d %d' font-family='Inter,sans-serif'>",
		width, height, width, height)
	fmt.Fprintf(b, "<rect width='100%%' height='100%%' fill='%s'/>", bgColor)
}

func renderPlaceholder(width, height int, msg string) []byte {
	var b bytes.Buffer
	writeHeader(&b, width, height)
	fmt.Fprintf(&b, "<text x='%d' y='%d' fill='%s' font-size='13' text-anchor='middle'>%s</text></svg>",
		width/2, height/2, textColor, msg)
	return b.Bytes()
}

var _ Surface = (*SVGSurface)(nil)
