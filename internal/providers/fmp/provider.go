// Package fmp is the typed layer over Financial Modeling Prep. It names the
// finite set of FMP routes stockdesk uses and decodes their payloads into
// pkg/models types. Every request goes through an upstream.Client, so
// caching, coalescing and rate limiting apply uniformly.
//
// Docs: https://site.financialmodelingprep.com/developer/docs
package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seenimoa/stockdesk/internal/upstream"
)

// Endpoint names.
const (
	EndpointQuote            = "quote"
	EndpointProfile          = "profile"
	EndpointTreasury         = "treasury"
	EndpointIncomeStatement  = "income-statement"
	EndpointBalanceSheet     = "balance-sheet-statement"
	EndpointCashFlow         = "cash-flow-statement"
	EndpointHistoricalPrices = "historical-price-full"
	EndpointStockNews        = "stock-news"
	EndpointEarningsCalendar = "earning-calendar"
)

// Query parameter keys.
const (
	ParamSymbol  = "symbol"
	ParamPeriod  = "period"
	ParamLimit   = "limit"
	ParamFrom    = "from"
	ParamTo      = "to"
	ParamTickers = "tickers"
)

// Endpoints is every FMP route the client is allowed to call.
var Endpoints = []upstream.Endpoint{
	{Name: EndpointQuote, Path: "/v3/quote/{symbol}", Class: upstream.TTLQuote},
	{Name: EndpointProfile, Path: "/v3/profile/{symbol}", Class: upstream.TTLFundamentals},
	{Name: EndpointTreasury, Path: "/v4/treasury", Class: upstream.TTLFundamentals},
	{Name: EndpointIncomeStatement, Path: "/v3/income-statement/{symbol}", Class: upstream.TTLFundamentals},
	{Name: EndpointBalanceSheet, Path: "/v3/balance-sheet-statement/{symbol}", Class: upstream.TTLFundamentals},
	{Name: EndpointCashFlow, Path: "/v3/cash-flow-statement/{symbol}", Class: upstream.TTLFundamentals},
	{Name: EndpointHistoricalPrices, Path: "/v3/historical-price-full/{symbol}", Class: upstream.TTLHistory},
	{Name: EndpointStockNews, Path: "/v3/stock_news", Class: upstream.TTLNews},
	{Name: EndpointEarningsCalendar, Path: "/v3/historical/earning_calendar/{symbol}", Class: upstream.TTLFundamentals},
}

// Fetcher is the raw payload source, normally an *upstream.Client.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params upstream.Params) (json.RawMessage, error)
}

// Provider exposes typed FMP operations.
type Provider struct {
	fetcher Fetcher
}

// New creates a provider backed by f.
func New(f Fetcher) *Provider {
	return &Provider{fetcher: f}
}

// ErrMissingParam is returned when a required parameter is missing.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func symbolParams(symbol string) (upstream.Params, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, &ErrMissingParam{Param: ParamSymbol}
	}
	return upstream.Params{ParamSymbol: symbol}, nil
}

// fetchJSON fetches endpoint and decodes the payload into dest. A payload
// that does not fit dest is a protocol error.
func (p *Provider) fetchJSON(ctx context.Context, endpoint string, params upstream.Params, dest any) error {
	payload, err := p.fetcher.Fetch(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return &upstream.Error{
			Kind:     upstream.KindProtocol,
			Endpoint: endpoint,
			Err:      fmt.Errorf("decode %s: %w", endpoint, err),
		}
	}
	return nil
}
