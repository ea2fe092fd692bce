package fmp

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/seenimoa/stockdesk/internal/upstream"
	"github.com/seenimoa/stockdesk/pkg/models"
)

const dateLayout = "2006-01-02"

// ErrNotFound is returned when FMP answers with an empty result for a symbol.
type ErrNotFound struct {
	Endpoint string
	Symbol   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("no %s data for %s", e.Endpoint, e.Symbol)
}

// Quote returns the real-time quote for symbol.
func (p *Provider) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	params, err := symbolParams(symbol)
	if err != nil {
		return nil, err
	}
	var resp []fmpQuote
	if err := p.fetchJSON(ctx, EndpointQuote, params, &resp); err != nil {
		return nil, fmt.Errorf("fmp quote %s: %w", params[ParamSymbol], err)
	}
	if len(resp) == 0 {
		return nil, &ErrNotFound{Endpoint: EndpointQuote, Symbol: params[ParamSymbol]}
	}
	q := resp[0].toModel()
	return &q, nil
}

// Profile returns the company profile for symbol.
func (p *Provider) Profile(ctx context.Context, symbol string) (*models.Profile, error) {
	params, err := symbolParams(symbol)
	if err != nil {
		return nil, err
	}
	var resp []fmpProfile
	if err := p.fetchJSON(ctx, EndpointProfile, params, &resp); err != nil {
		return nil, fmt.Errorf("fmp profile %s: %w", params[ParamSymbol], err)
	}
	if len(resp) == 0 {
		return nil, &ErrNotFound{Endpoint: EndpointProfile, Symbol: params[ParamSymbol]}
	}
	prof := resp[0].toModel()
	return &prof, nil
}

// TreasuryRates returns the most recent treasury curve, or nil when FMP
// has none.
func (p *Provider) TreasuryRates(ctx context.Context) (*models.TreasuryRates, error) {
	var resp []fmpTreasury
	if err := p.fetchJSON(ctx, EndpointTreasury, nil, &resp); err != nil {
		return nil, fmt.Errorf("fmp treasury: %w", err)
	}
	if len(resp) == 0 {
		return nil, nil
	}
	latest := resp[0]
	for _, r := range resp[1:] {
		if r.Date > latest.Date {
			latest = r
		}
	}
	rates := latest.toModel()
	return &rates, nil
}

func statementParams(symbol string, period models.Period, limit int) (upstream.Params, error) {
	params, err := symbolParams(symbol)
	if err != nil {
		return nil, err
	}
	if period == models.PeriodQuarter {
		params[ParamPeriod] = string(period)
	}
	if limit > 0 {
		params[ParamLimit] = strconv.Itoa(limit)
	}
	return params, nil
}

// IncomeStatements returns up to limit income statements, newest first.
func (p *Provider) IncomeStatements(ctx context.Context, symbol string, period models.Period, limit int) ([]models.IncomeStatement, error) {
	params, err := statementParams(symbol, period, limit)
	if err != nil {
		return nil, err
	}
	var resp []fmpIncomeStatement
	if err := p.fetchJSON(ctx, EndpointIncomeStatement, params, &resp); err != nil {
		return nil, fmt.Errorf("fmp income statement %s: %w", params[ParamSymbol], err)
	}
	out := make([]models.IncomeStatement, 0, len(resp))
	for _, s := range resp {
		out = append(out, s.toModel())
	}
	return out, nil
}

// BalanceSheets returns up to limit balance sheets, newest first.
func (p *Provider) BalanceSheets(ctx context.Context, symbol string, period models.Period, limit int) ([]models.BalanceSheet, error) {
	params, err := statementParams(symbol, period, limit)
	if err != nil {
		return nil, err
	}
	var resp []fmpBalanceSheet
	if err := p.fetchJSON(ctx, EndpointBalanceSheet, params, &resp); err != nil {
		return nil, fmt.Errorf("fmp balance sheet %s: %w", params[ParamSymbol], err)
	}
	out := make([]models.BalanceSheet, 0, len(resp))
	for _, b := range resp {
		out = append(out, b.toModel())
	}
	return out, nil
}

// CashFlows returns up to limit cash flow statements, newest first.
func (p *Provider) CashFlows(ctx context.Context, symbol string, period models.Period, limit int) ([]models.CashFlow, error) {
	params, err := statementParams(symbol, period, limit)
	if err != nil {
		return nil, err
	}
	var resp []fmpCashFlow
	if err := p.fetchJSON(ctx, EndpointCashFlow, params, &resp); err != nil {
		return nil, fmt.Errorf("fmp cash flow %s: %w", params[ParamSymbol], err)
	}
	out := make([]models.CashFlow, 0, len(resp))
	for _, c := range resp {
		out = append(out, c.toModel())
	}
	return out, nil
}

// HistoricalPrices returns daily bars between from and to inclusive, oldest
// first. Zero times leave the bound to FMP's default.
func (p *Provider) HistoricalPrices(ctx context.Context, symbol string, from, to time.Time) ([]models.OHLCV, error) {
	params, err := symbolParams(symbol)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() {
		params[ParamFrom] = from.Format(dateLayout)
	}
	if !to.IsZero() {
		params[ParamTo] = to.Format(dateLayout)
	}

	var resp fmpHistoricalPrice
	if err := p.fetchJSON(ctx, EndpointHistoricalPrices, params, &resp); err != nil {
		return nil, fmt.Errorf("fmp historical %s: %w", params[ParamSymbol], err)
	}

	candles := make([]models.OHLCV, 0, len(resp.Historical))
	for _, h := range resp.Historical {
		t, err := time.Parse(dateLayout, h.Date)
		if err != nil {
			return nil, &upstream.Error{
				Kind:     upstream.KindProtocol,
				Endpoint: EndpointHistoricalPrices,
				Err:      fmt.Errorf("bad bar date %q: %w", h.Date, err),
			}
		}
		candles = append(candles, models.OHLCV{
			Date:     t,
			Open:     h.Open,
			High:     h.High,
			Low:      h.Low,
			Close:    h.Close,
			AdjClose: h.AdjClose,
			Volume:   int64(h.Volume),
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Date.Before(candles[j].Date) })
	return candles, nil
}

// StockNews returns up to limit recent stories about symbol.
func (p *Provider) StockNews(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, &ErrMissingParam{Param: ParamTickers}
	}
	params := upstream.Params{ParamTickers: symbol}
	if limit > 0 {
		params[ParamLimit] = strconv.Itoa(limit)
	}
	var resp []fmpNewsArticle
	if err := p.fetchJSON(ctx, EndpointStockNews, params, &resp); err != nil {
		return nil, fmt.Errorf("fmp stock news %s: %w", symbol, err)
	}
	out := make([]models.NewsItem, 0, len(resp))
	for _, a := range resp {
		out = append(out, a.toModel())
	}
	return out, nil
}

// EarningsCalendar returns past and scheduled earnings dates for symbol.
func (p *Provider) EarningsCalendar(ctx context.Context, symbol string) ([]models.EarningsEvent, error) {
	params, err := symbolParams(symbol)
	if err != nil {
		return nil, err
	}
	var resp []fmpEarningsCalendar
	if err := p.fetchJSON(ctx, EndpointEarningsCalendar, params, &resp); err != nil {
		return nil, fmt.Errorf("fmp earnings calendar %s: %w", params[ParamSymbol], err)
	}
	out := make([]models.EarningsEvent, 0, len(resp))
	for _, e := range resp {
		out = append(out, e.toModel())
	}
	return out, nil
}
