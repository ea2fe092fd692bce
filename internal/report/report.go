package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/seenimoa/stockdesk/internal/analysis/technical"
)

// pageData feeds chartPage.
type pageData struct {
	Title     string
	Ticker    string
	TimeFrame string
	From      string
	To        string
	Generated string
	SVG       template.HTML
}

// WriteChartPage renders the full-screen HTML chart page for s.
func WriteChartPage(w io.Writer, s *technical.ChartSeries, now time.Time) error {
	if s == nil || len(s.Bars) == 0 {
		return errors.New("chart series is empty")
	}
	cfg := DefaultChartConfig()
	cfg.Title = ChartTitle(s.Ticker)

	data := pageData{
		Title:     cfg.Title,
		Ticker:    s.Ticker,
		TimeFrame: string(s.TimeFrame),
		From:      s.Bars[0].Date.Format("2006-01-02"),
		To:        s.Bars[len(s.Bars)-1].Date.Format("2006-01-02"),
		Generated: now.UTC().Format(time.RFC3339),
		// The SVG is built from numbers and escaped text only.
		SVG: template.HTML(CandlestickChart(s, cfg)),
	}
	if err := chartPage.Execute(w, data); err != nil {
		return fmt.Errorf("executing chart template: %w", err)
	}
	return nil
}

// ChartPage is WriteChartPage into a string.
func ChartPage(s *technical.ChartSeries, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := WriteChartPage(&buf, s, now); err != nil {
		return "", err
	}
	return buf.String(), nil
}
