// Package report renders stock charts as SVG and wraps them in standalone
// HTML pages.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/stockdesk/internal/analysis/technical"
)

// Overlay and candle colours.
const (
	ColorMA50    = "#1f77b4" // blue
	ColorMA200   = "#ff7f0e" // orange
	ColorUp      = "#26a69a"
	ColorDown    = "#ef5350"
	colorVolUp   = "#66bb6a"
	colorVolDown = "#e57373"
)

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	VolumeShare  float64 // fraction of the plot height given to volume bars
	BgColor      string
	GridColor    string
	TextColor    string
	FontSize     int
	Title        string
}

// DefaultChartConfig returns the layout used for the chart page.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        1600,
		Height:       900,
		MarginTop:    60,
		MarginRight:  80,
		MarginBottom: 70,
		MarginLeft:   80,
		VolumeShare:  0.25,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     12,
	}
}

// plotArea returns the usable drawing area.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// ChartTitle is the heading drawn above a ticker's chart.
func ChartTitle(ticker string) string {
	return ticker + " Stock Price Chart"
}

// CandlestickChart draws the series as candles with the MA50 and MA200
// overlays in the upper panel and volume bars in the lower panel.
func CandlestickChart(s *technical.ChartSeries, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if cfg.Title == "" && s != nil {
		cfg.Title = ChartTitle(s.Ticker)
	}
	if s == nil || len(s.Bars) == 0 {
		return emptySVG(cfg, "No data available")
	}
	if cfg.VolumeShare <= 0 || cfg.VolumeShare >= 1 {
		cfg.VolumeShare = 0.25
	}

	bars := s.Bars
	n := len(bars)
	px, py, pw, ph := cfg.plotArea()

	volH := float64(ph) * cfg.VolumeShare
	gap := 20.0
	priceH := float64(ph) - volH - gap
	volTop := float64(py) + priceH + gap

	lo, hi := priceRange(s)
	span := hi - lo

	var maxVol int64
	for _, b := range bars {
		maxVol = max(maxVol, b.Volume)
	}

	slot := float64(pw) / float64(n)
	bodyW := math.Min(slot*0.7, 14)
	centre := func(i int) float64 { return float64(px) + slot*(float64(i)+0.5) }
	priceY := func(p float64) float64 { return float64(py) + priceH - (p-lo)/span*priceH }

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`, cfg.Width, cfg.Height, cfg.BgColor)
	fmt.Fprintf(&sb, `<text x="%d" y="32" font-size="22" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title))

	// Price grid.
	const gridLines = 6
	for i := 0; i <= gridLines; i++ {
		p := lo + span*float64(i)/gridLines
		y := priceY(p)
		fmt.Fprintf(&sb, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor)
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%.2f</text>`,
			px-6, y+4, cfg.FontSize, cfg.TextColor, p)
	}
	fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="middle" transform="rotate(-90,%d,%.1f)">Price</text>`,
		20, float64(py)+priceH/2, cfg.FontSize, cfg.TextColor, 20, float64(py)+priceH/2)

	// Candles.
	sb.WriteString(`<g class="candles">`)
	for i, b := range bars {
		cx := centre(i)
		color := ColorUp
		if b.Close < b.Open {
			color = ColorDown
		}
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`,
			cx, priceY(b.High), cx, priceY(b.Low), color)
		top, bottom := priceY(b.Open), priceY(b.Close)
		if top > bottom {
			top, bottom = bottom, top
		}
		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"><title>%s O %.2f H %.2f L %.2f C %.2f</title></rect>`,
			cx-bodyW/2, top, bodyW, math.Max(bottom-top, 1), color,
			b.Date.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close)
	}
	sb.WriteString(`</g>`)

	overlays := []struct {
		name   string
		color  string
		values []float64
	}{
		{"MA50", ColorMA50, s.MA50},
		{"MA200", ColorMA200, s.MA200},
	}
	for k, o := range overlays {
		if len(o.values) != n {
			continue
		}
		parts := make([]string, 0, n)
		for i, v := range o.values {
			if math.IsNaN(v) {
				continue
			}
			cmd := "L"
			if len(parts) == 0 {
				cmd = "M"
			}
			parts = append(parts, fmt.Sprintf("%s%.1f,%.1f", cmd, centre(i), priceY(v)))
		}
		if len(parts) == 0 {
			continue
		}
		fmt.Fprintf(&sb, `<path class="%s" d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
			strings.ToLower(o.name), strings.Join(parts, " "), o.color)

		ly := py + 16 + k*18
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="3"/>`,
			px+10, ly, px+34, ly, o.color)
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-size="%d" fill="%s">%s</text>`,
			px+40, ly+4, cfg.FontSize, cfg.TextColor, o.name)
	}

	// Volume panel.
	fmt.Fprintf(&sb, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s"/>`,
		px, volTop+volH, px+pw, volTop+volH, cfg.GridColor)
	fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="middle" transform="rotate(-90,%d,%.1f)">Volume</text>`,
		20, volTop+volH/2, cfg.FontSize, cfg.TextColor, 20, volTop+volH/2)
	if maxVol > 0 {
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-6, volTop+4, cfg.FontSize, cfg.TextColor, compactVolume(maxVol))
		sb.WriteString(`<g class="volume">`)
		for i, b := range bars {
			h := float64(b.Volume) / float64(maxVol) * volH
			color := colorVolUp
			if b.Close < b.Open {
				color = colorVolDown
			}
			fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`,
				centre(i)-bodyW/2, volTop+volH-h, bodyW, h, color)
		}
		sb.WriteString(`</g>`)
	}

	// Date axis.
	step := max(n/8, 1)
	labelY := int(volTop+volH) + 18
	for i := 0; i < n; i += step {
		cx := centre(i)
		fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			cx, labelY, cfg.FontSize-1, cfg.TextColor, bars[i].Date.Format("Jan 02 2006"))
	}
	fmt.Fprintf(&sb, `<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="middle">Date</text>`,
		px+pw/2, cfg.Height-12, cfg.FontSize, cfg.TextColor)

	sb.WriteString("</svg>")
	return sb.String()
}

// priceRange spans candles and overlays with 5% padding.
func priceRange(s *technical.ChartSeries) (lo, hi float64) {
	lo, hi = s.Bars[0].Low, s.Bars[0].High
	for _, b := range s.Bars {
		lo = math.Min(lo, b.Low)
		hi = math.Max(hi, b.High)
	}
	for _, series := range [][]float64{s.MA50, s.MA200} {
		for _, v := range series {
			if !math.IsNaN(v) {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
	}
	span := hi - lo
	if span < 0.01 {
		span = 1
	}
	return lo - span*0.05, hi + span*0.05
}

func compactVolume(v int64) string {
	f := float64(v)
	switch {
	case f >= 1e9:
		return fmt.Sprintf("%.1fB", f/1e9)
	case f >= 1e6:
		return fmt.Sprintf("%.1fM", f/1e6)
	case f >= 1e3:
		return fmt.Sprintf("%.1fK", f/1e3)
	default:
		return fmt.Sprintf("%d", v)
	}
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" preserveAspectRatio="xMidYMid meet" font-family="sans-serif">`,
		cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="18">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
