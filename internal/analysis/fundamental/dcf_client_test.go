package fundamental_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/stockdesk/internal/analysis/fundamental"
	"github.com/seenimoa/stockdesk/internal/providers/fmp"
	"github.com/seenimoa/stockdesk/internal/upstream"
)

var fmpFixtures = map[string]string{
	"/v3/quote/AAPL":   `[{"symbol":"AAPL","price":50,"marketCap":9e9,"sharesOutstanding":1.8e8}]`,
	"/v3/profile/AAPL": `[{"symbol":"AAPL","price":50,"beta":1.2,"mktCap":9e9}]`,
	"/v4/treasury":     `[{"date":"2025-03-13","year10":4.1},{"date":"2025-03-14","year10":4.0}]`,
	"/v3/income-statement/AAPL": `[{"date":"2024-09-28","symbol":"AAPL","revenue":4e9,"netIncome":8e8,` +
		`"interestExpense":5e7,"incomeBeforeTax":1e9,"incomeTaxExpense":2e8}]`,
	"/v3/balance-sheet-statement/AAPL": `[{"date":"2024-09-28","symbol":"AAPL","totalDebt":1e9,"cashAndCashEquivalents":5e8}]`,
	"/v3/cash-flow-statement/AAPL": `[
		{"date":"2024-09-28","operatingCashFlow":1.2e9,"capitalExpenditure":-2e8,"freeCashFlow":1e9},
		{"date":"2023-09-30","operatingCashFlow":1.1e9,"capitalExpenditure":-2e8,"freeCashFlow":9e8}
	]`,
}

// newFixtureFMP serves fmpFixtures and counts requests.
func newFixtureFMP(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, ok := fmpFixtures[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, strings.TrimSpace(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRunDCFOverClientWithDefaultLimits(t *testing.T) {
	tests := []struct {
		name string
		opts []upstream.Option
	}{
		{name: "client defaults"},
		{name: "configured defaults", opts: []upstream.Option{
			upstream.WithRateLimit(upstream.DefaultRateTokens, upstream.DefaultRateInterval),
			upstream.WithRateBurst(upstream.DefaultRateBurst),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := newFixtureFMP(t)
			opts := append([]upstream.Option{
				upstream.WithBaseURL(srv.URL),
				upstream.WithEndpoints(fmp.Endpoints...),
			}, tt.opts...)
			client, err := upstream.New("k", opts...)
			require.NoError(t, err)
			provider := fmp.New(client)

			res, err := fundamental.RunDCF(t.Context(), provider, "aapl")
			require.NoError(t, err)
			assert.Equal(t, "AAPL", res.Ticker)
			assert.InDelta(t, 50, res.CurrentPrice, 1e-9)
			assert.InDelta(t, 1e9, res.CurrentFCF, 1e-3)
			assert.InDelta(t, 1/0.9-1, res.GrowthRate, 1e-9)
			assert.Greater(t, res.IntrinsicValuePerShare, 0.0)
			assert.EqualValues(t, 6, calls.Load())

			// A second run is served from the cache.
			again, err := fundamental.RunDCF(t.Context(), provider, "AAPL")
			require.NoError(t, err)
			assert.Equal(t, res.IntrinsicValuePerShare, again.IntrinsicValuePerShare)
			assert.EqualValues(t, 6, calls.Load())
		})
	}
}
