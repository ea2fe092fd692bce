package technical

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seenimoa/stockdesk/pkg/models"
)

// Bar is one daily candle.
type Bar = models.OHLCV

const (
	// ShortWindow and LongWindow are the moving average overlays.
	ShortWindow = 50
	LongWindow  = 200

	// warmup is the extra history fetched so the long average is
	// populated from the first visible bar.
	warmup = 200 * 24 * time.Hour
	day    = 24 * time.Hour
)

// TimeFrame is a chart lookback such as "1y".
type TimeFrame string

var timeFrames = map[TimeFrame]int{
	"3m": 90,
	"6m": 180,
	"1y": 365,
	"5y": 5 * 365,
}

// ErrInvalidTimeFrame is returned for lookbacks other than 3m, 6m, 1y and 5y.
var ErrInvalidTimeFrame = errors.New("invalid time frame")

// ErrNoData is returned when no bars fall inside the requested window.
var ErrNoData = errors.New("could not fetch data")

// ParseTimeFrame validates a lookback string.
func ParseTimeFrame(s string) (TimeFrame, error) {
	tf := TimeFrame(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := timeFrames[tf]; !ok {
		return "", fmt.Errorf("%w %q: use 3m, 6m, 1y or 5y", ErrInvalidTimeFrame, s)
	}
	return tf, nil
}

// Days is the lookback length in calendar days.
func (tf TimeFrame) Days() int { return timeFrames[tf] }

// HistorySource serves daily bars sorted oldest first.
type HistorySource interface {
	HistoricalPrices(ctx context.Context, symbol string, from, to time.Time) ([]models.OHLCV, error)
}

// ChartSeries is a trimmed price history with its moving averages aligned
// index for index.
type ChartSeries struct {
	Ticker    string
	TimeFrame TimeFrame
	Bars      []Bar
	MA50      []float64
	MA200     []float64
}

// BuildChartSeries fetches bars for tf ending at today, computes the
// averages over the warm-up history and trims everything back to the start
// of the window.
func BuildChartSeries(ctx context.Context, src HistorySource, ticker string, tf TimeFrame, today time.Time) (*ChartSeries, error) {
	days, ok := timeFrames[tf]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrInvalidTimeFrame, tf)
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	end := truncateDay(today)
	start := end.Add(-time.Duration(days) * day)

	bars, err := src.HistoricalPrices(ctx, ticker, start.Add(-warmup), end)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", ticker, err)
	}

	closes := Closes(bars)
	ma50 := RollingMean(closes, ShortWindow)
	ma200 := RollingMean(closes, LongWindow)

	first := len(bars)
	for i, b := range bars {
		if !b.Date.Before(start) {
			first = i
			break
		}
	}
	if first == len(bars) {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}

	return &ChartSeries{
		Ticker:    ticker,
		TimeFrame: tf,
		Bars:      bars[first:],
		MA50:      ma50[first:],
		MA200:     ma200[first:],
	}, nil
}

// truncateDay keeps the calendar date of t as UTC midnight, which is how
// daily bars are dated.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
