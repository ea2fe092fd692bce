package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/seenimoa/stockdesk/internal/analysis/fundamental"
	"github.com/seenimoa/stockdesk/pkg/models"
)

// Output formats accepted by --output.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// render writes v in the requested format. tableFn is only called for the
// table format.
func render(w io.Writer, format string, v any, tableFn func() string) error {
	switch strings.ToLower(format) {
	case formatTable, "":
		_, err := fmt.Fprintln(w, tableFn())
		return err
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return writeYAML(w, v)
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func quoteTable(q *models.Quote) string {
	t := newTable()
	t.SetTitle(fmt.Sprintf("%s  %s", q.Symbol, q.Name))
	t.AppendRows([]table.Row{
		{"Price", fmt.Sprintf("%.2f", q.Price)},
		{"Change", fmt.Sprintf("%+.2f (%+.2f%%)", q.Change, q.ChangePct)},
		{"Open", fmt.Sprintf("%.2f", q.Open)},
		{"Day Range", fmt.Sprintf("%.2f - %.2f", q.DayLow, q.DayHigh)},
		{"52w Range", fmt.Sprintf("%.2f - %.2f", q.YearLow, q.YearHigh)},
		{"Volume", fmt.Sprintf("%d", q.Volume)},
		{"Market Cap", fundamental.FormatFinancialNumber(q.MarketCap)},
		{"P/E", fmt.Sprintf("%.2f", q.PE)},
		{"Exchange", q.Exchange},
	})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return t.Render()
}

func dcfTable(r *models.DCFResult) string {
	t := newTable()
	t.SetTitle(r.Ticker + " DCF")
	t.AppendRows([]table.Row{
		{"Intrinsic Value / Share", fmt.Sprintf("$%.2f", r.IntrinsicValuePerShare)},
		{"Current Price", fmt.Sprintf("$%.2f", r.CurrentPrice)},
		{"Margin of Safety", fmt.Sprintf("%.2f%%", r.MarginOfSafety)},
		{"Recommendation", string(r.Recommendation)},
	})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return t.Render() + "\n\n" + r.Explanation
}

func earningsTable(r *models.EarningsReport) string {
	t := newTable()
	t.SetTitle(r.Ticker + " Earnings")
	t.AppendHeader(table.Row{"Date", "Revenue", "Net Income", "EPS"})
	for _, row := range r.EarningsData {
		t.AppendRow(table.Row{row.Date, row.Revenue, row.NetIncome, row.EPS})
	}
	t.AppendFooter(table.Row{"Next", r.UpcomingEarnings, "", ""})
	return t.Render()
}

func newsTable(articles []models.NewsArticle) string {
	t := newTable()
	t.AppendHeader(table.Row{"Published", "Provider", "Title", "URL"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, WidthMax: 60}})
	for _, a := range articles {
		t.AppendRow(table.Row{a.PubDate, a.Provider, a.Title, a.URL})
	}
	return t.Render()
}

func statusTable(st statusReport) string {
	t := newTable()
	t.SetTitle("stockdesk " + st.Version)
	t.AppendRows([]table.Row{
		{"Config", st.ConfigFile},
		{"FMP Base URL", st.BaseURL},
		{"Listen", st.Listen},
		{"Rate Limit", st.RateLimit},
		{"Retries", st.Retries},
		{"Breaker", st.Breaker},
		{"Valid", st.Valid},
	})
	for _, k := range st.Keys {
		state := "not set"
		if k.IsSet {
			state = fmt.Sprintf("%s (%s)", k.Masked, k.Source)
		}
		t.AppendRow(table.Row{k.Name, state})
	}
	return t.Render()
}
