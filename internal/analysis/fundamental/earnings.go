package fundamental

import (
	"context"
	"fmt"
	"time"

	"github.com/seenimoa/stockdesk/internal/providers/fmp"
	"github.com/seenimoa/stockdesk/pkg/models"
)

const (
	earningsQuarters = 4
	notAvailable     = "N/A"
	dateLayout       = "2006-01-02"
)

// Earnings reports the last four quarters and the next scheduled earnings
// date on or after today. A calendar that cannot be fetched leaves the
// upcoming date as "N/A".
func Earnings(ctx context.Context, src Source, ticker string, today time.Time) (*models.EarningsReport, error) {
	ticker = fmp.NormalizeSymbol(ticker)
	statements, err := src.IncomeStatements(ctx, ticker, models.PeriodQuarter, earningsQuarters)
	if err != nil {
		return nil, fmt.Errorf("earnings %s: %w", ticker, err)
	}

	report := &models.EarningsReport{
		Ticker:           ticker,
		EarningsData:     EarningsRows(statements),
		UpcomingEarnings: notAvailable,
	}

	events, err := src.EarningsCalendar(ctx, ticker)
	if err == nil {
		report.UpcomingEarnings = NextEarningsDate(events, today)
	}
	return report, nil
}

// EarningsRows formats up to four quarterly statements. A statement is
// skipped when any reported value is missing: no date, or a zero revenue,
// net income or EPS (FMP sends absent figures as 0). Diluted EPS is
// preferred over basic.
func EarningsRows(statements []models.IncomeStatement) []models.EarningsRow {
	rows := make([]models.EarningsRow, 0, earningsQuarters)
	for _, s := range statements {
		if len(rows) == earningsQuarters {
			break
		}
		eps := s.EPSDiluted
		if eps == 0 {
			eps = s.EPS
		}
		if s.Date == "" || s.Revenue == 0 || s.NetIncome == 0 || eps == 0 {
			continue
		}
		rows = append(rows, models.EarningsRow{
			Date:      s.Date,
			Revenue:   FormatBillions(s.Revenue),
			NetIncome: FormatBillions(s.NetIncome),
			EPS:       fmt.Sprintf("%.2f", eps),
		})
	}
	return rows
}

// NextEarningsDate returns the earliest event date on or after today, or
// "N/A".
func NextEarningsDate(events []models.EarningsEvent, today time.Time) string {
	floor := today.Format(dateLayout)
	next := ""
	for _, e := range events {
		d, err := time.Parse(dateLayout, e.Date)
		if err != nil {
			continue
		}
		ds := d.Format(dateLayout)
		if ds < floor {
			continue
		}
		if next == "" || ds < next {
			next = ds
		}
	}
	if next == "" {
		return notAvailable
	}
	return next
}
