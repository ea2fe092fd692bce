package fmp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/stockdesk/internal/upstream"
	"github.com/seenimoa/stockdesk/pkg/models"
)

type call struct {
	endpoint string
	params   upstream.Params
}

// stubFetcher answers from a fixed endpoint → payload table.
type stubFetcher struct {
	payloads map[string]string
	err      error
	calls    []call
}

func (s *stubFetcher) Fetch(_ context.Context, endpoint string, params upstream.Params) (json.RawMessage, error) {
	s.calls = append(s.calls, call{endpoint: endpoint, params: params})
	if s.err != nil {
		return nil, s.err
	}
	body, ok := s.payloads[endpoint]
	if !ok {
		return json.RawMessage(`[]`), nil
	}
	return json.RawMessage(body), nil
}

func TestEndpointsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, ep := range Endpoints {
		require.False(t, seen[ep.Name], "duplicate endpoint %s", ep.Name)
		seen[ep.Name] = true
		assert.NotEmpty(t, ep.Path)
		assert.NotEmpty(t, ep.Class)
	}
	assert.Len(t, Endpoints, 9)
}

func TestQuote(t *testing.T) {
	f := &stubFetcher{payloads: map[string]string{
		EndpointQuote: `[{"symbol":"AAPL","name":"Apple Inc.","price":189.5,"changesPercentage":1.25,"marketCap":2.95e12,"volume":5.2e7,"sharesOutstanding":15550000000,"timestamp":1710428400}]`,
	}}
	p := New(f)

	q, err := p.Quote(t.Context(), " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.InDelta(t, 189.5, q.Price, 1e-9)
	assert.EqualValues(t, 52000000, q.Volume)
	assert.InDelta(t, 15550000000, q.SharesOutstanding, 1)
	assert.Equal(t, time.Unix(1710428400, 0).UTC(), q.Timestamp)

	require.Len(t, f.calls, 1)
	assert.Equal(t, upstream.Params{ParamSymbol: "AAPL"}, f.calls[0].params)
}

func TestQuoteNotFound(t *testing.T) {
	p := New(&stubFetcher{})

	_, err := p.Quote(t.Context(), "ZZZZ")
	var nf *ErrNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ZZZZ", nf.Symbol)
}

func TestMissingSymbol(t *testing.T) {
	f := &stubFetcher{}
	p := New(f)

	_, err := p.Profile(t.Context(), "  ")
	var missing *ErrMissingParam
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, ParamSymbol, missing.Param)

	_, err = p.StockNews(t.Context(), "", 10)
	require.ErrorAs(t, err, &missing)
	assert.Empty(t, f.calls)
}

func TestDecodeFailureIsProtocolError(t *testing.T) {
	p := New(&stubFetcher{payloads: map[string]string{
		EndpointProfile: `{"symbol":"AAPL"}`,
	}})

	_, err := p.Profile(t.Context(), "AAPL")
	require.ErrorIs(t, err, upstream.ErrUpstreamProtocol)
}

func TestUpstreamErrorsPassThrough(t *testing.T) {
	p := New(&stubFetcher{err: &upstream.Error{Kind: upstream.KindRateLimited, RetryAfter: time.Second}})

	_, err := p.Quote(t.Context(), "AAPL")
	require.ErrorIs(t, err, upstream.ErrRateLimited)
	assert.Equal(t, time.Second, upstream.RetryAfter(err))
}

func TestStatementParams(t *testing.T) {
	f := &stubFetcher{payloads: map[string]string{
		EndpointIncomeStatement: `[{"date":"2024-12-28","symbol":"AAPL","period":"Q1","revenue":124300000000,"netIncome":36330000000,"epsdiluted":2.4}]`,
		EndpointBalanceSheet:    `[{"date":"2024-09-28","totalDebt":106629000000,"cashAndCashEquivalents":29943000000}]`,
		EndpointCashFlow:        `[{"date":"2024-09-28","operatingCashFlow":118254000000,"capitalExpenditure":-9447000000,"freeCashFlow":108807000000}]`,
	}}
	p := New(f)

	inc, err := p.IncomeStatements(t.Context(), "aapl", models.PeriodQuarter, 4)
	require.NoError(t, err)
	require.Len(t, inc, 1)
	assert.InDelta(t, 2.4, inc[0].EPSDiluted, 1e-9)

	bs, err := p.BalanceSheets(t.Context(), "AAPL", models.PeriodAnnual, 1)
	require.NoError(t, err)
	assert.InDelta(t, 106629000000, bs[0].TotalDebt, 1)

	cf, err := p.CashFlows(t.Context(), "AAPL", models.PeriodAnnual, 5)
	require.NoError(t, err)
	assert.InDelta(t, -9447000000, cf[0].CapitalExpenditure, 1)

	require.Len(t, f.calls, 3)
	assert.Equal(t, upstream.Params{ParamSymbol: "AAPL", ParamPeriod: "quarter", ParamLimit: "4"}, f.calls[0].params)
	assert.Equal(t, upstream.Params{ParamSymbol: "AAPL", ParamLimit: "1"}, f.calls[1].params)
	assert.Equal(t, upstream.Params{ParamSymbol: "AAPL", ParamLimit: "5"}, f.calls[2].params)
}

func TestHistoricalPricesSortedOldestFirst(t *testing.T) {
	f := &stubFetcher{payloads: map[string]string{
		EndpointHistoricalPrices: `{"symbol":"AAPL","historical":[
			{"date":"2024-03-05","open":3,"high":4,"low":2,"close":3.5,"volume":300},
			{"date":"2024-03-04","open":2,"high":3,"low":1,"close":2.5,"volume":200},
			{"date":"2024-03-01","open":1,"high":2,"low":0.5,"close":1.5,"volume":100}
		]}`,
	}}
	p := New(f)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	bars, err := p.HistoricalPrices(t.Context(), "AAPL", from, to)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, from, bars[0].Date)
	assert.Equal(t, to, bars[2].Date)
	assert.EqualValues(t, 300, bars[2].Volume)
	assert.Equal(t, "2024-03-01", f.calls[0].params[ParamFrom])
	assert.Equal(t, "2024-03-05", f.calls[0].params[ParamTo])
}

func TestHistoricalPricesEmptyObject(t *testing.T) {
	p := New(&stubFetcher{payloads: map[string]string{EndpointHistoricalPrices: `{}`}})

	bars, err := p.HistoricalPrices(t.Context(), "NOPE", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestTreasuryRatesPicksLatest(t *testing.T) {
	p := New(&stubFetcher{payloads: map[string]string{
		EndpointTreasury: `[{"date":"2025-03-12","year10":4.31},{"date":"2025-03-14","year10":4.27},{"date":"2025-03-13","year10":4.29}]`,
	}})

	rates, err := p.TreasuryRates(t.Context())
	require.NoError(t, err)
	require.NotNil(t, rates)
	assert.Equal(t, "2025-03-14", rates.Date)
	assert.InDelta(t, 4.27, rates.Year10, 1e-9)
}

func TestStockNewsAndCalendar(t *testing.T) {
	f := &stubFetcher{payloads: map[string]string{
		EndpointStockNews:        `[{"symbol":"AAPL","publishedDate":"2025-03-14 10:00:00","title":"Apple ships","site":"Reuters","text":"Body","url":"https://example.com/a","image":"https://example.com/a.jpg"}]`,
		EndpointEarningsCalendar: `[{"date":"2025-05-01","symbol":"AAPL","eps":null,"epsEstimated":1.62}]`,
	}}
	p := New(f)

	news, err := p.StockNews(t.Context(), "aapl", 5)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "Reuters", news[0].Site)
	assert.Equal(t, "2025-03-14 10:00:00", news[0].PublishedAt)
	assert.Equal(t, upstream.Params{ParamTickers: "AAPL", ParamLimit: "5"}, f.calls[0].params)

	events, err := p.EarningsCalendar(t.Context(), "AAPL")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "2025-05-01", events[0].Date)
	assert.Zero(t, events[0].EPS)
}

// TestProviderOverClient runs the typed layer against a real client and a
// fake FMP server.
func TestProviderOverClient(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/v3/quote/MSFT" || r.URL.Query().Get("apikey") != "k" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"symbol":"MSFT","price":415.1}]`))
	}))
	t.Cleanup(srv.Close)

	client, err := upstream.New("k", upstream.WithBaseURL(srv.URL), upstream.WithEndpoints(Endpoints...))
	require.NoError(t, err)
	p := New(client)

	for range 2 {
		q, err := p.Quote(t.Context(), "msft")
		require.NoError(t, err)
		assert.InDelta(t, 415.1, q.Price, 1e-9)
	}
	assert.Equal(t, 1, hits)

	_, err = p.Profile(t.Context(), "MSFT")
	require.True(t, errors.Is(err, upstream.ErrUpstreamRejected))
}
