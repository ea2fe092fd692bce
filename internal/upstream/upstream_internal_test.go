package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIsOrderIndependent(t *testing.T) {
	a := NewFingerprint("income-statement", Params{"symbol": "AAPL", "period": "quarter", "limit": "4"})
	b := NewFingerprint("income-statement", Params{"limit": "4", "period": "quarter", "symbol": "AAPL"})
	assert.Equal(t, a, b)
	assert.Equal(t, Fingerprint("income-statement?limit=4&period=quarter&symbol=AAPL"), a)

	assert.NotEqual(t, a, NewFingerprint("balance-sheet-statement", Params{"symbol": "AAPL", "period": "quarter", "limit": "4"}))
	assert.Equal(t, Fingerprint("treasury"), NewFingerprint("treasury", nil))
}

func TestFingerprintExcludesAPIKey(t *testing.T) {
	params := withoutKey(Params{"symbol": "AAPL", apiKeyParam: "k1"})
	assert.Equal(t, NewFingerprint("quote", Params{"symbol": "AAPL"}), NewFingerprint("quote", params))
}

func TestEndpointResolve(t *testing.T) {
	tests := []struct {
		name      string
		ep        Endpoint
		params    Params
		wantPath  string
		wantQuery string
		wantErr   bool
	}{
		{
			name:      "placeholder removed from query",
			ep:        Endpoint{Name: "quote", Path: "/v3/quote/{symbol}"},
			params:    Params{"symbol": "AAPL"},
			wantPath:  "/v3/quote/AAPL",
			wantQuery: "",
		},
		{
			name:      "extra params stay in query",
			ep:        Endpoint{Name: "historical-price-full", Path: "/v3/historical-price-full/{symbol}"},
			params:    Params{"symbol": "MSFT", "from": "2024-01-01", "to": "2024-06-30"},
			wantPath:  "/v3/historical-price-full/MSFT",
			wantQuery: "from=2024-01-01&to=2024-06-30",
		},
		{
			name:      "no placeholder",
			ep:        Endpoint{Name: "stock-news", Path: "/v3/stock_news"},
			params:    Params{"tickers": "AAPL", "limit": "10"},
			wantPath:  "/v3/stock_news",
			wantQuery: "limit=10&tickers=AAPL",
		},
		{
			name:     "escaped value",
			ep:       Endpoint{Name: "quote", Path: "/v3/quote/{symbol}"},
			params:   Params{"symbol": "A/B"},
			wantPath: "/v3/quote/A%2FB",
		},
		{
			name:    "missing placeholder value",
			ep:      Endpoint{Name: "quote", Path: "/v3/quote/{symbol}"},
			params:  Params{},
			wantErr: true,
		},
		{
			name:    "unterminated placeholder",
			ep:      Endpoint{Name: "bad", Path: "/v3/quote/{symbol"},
			params:  Params{"symbol": "AAPL"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, query, err := tt.ep.resolve(tt.params)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantQuery, query.Encode())
		})
	}
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	assert.Equal(t, 100*time.Millisecond, Backoff(0, base, time.Second))
	assert.Equal(t, 200*time.Millisecond, Backoff(1, base, time.Second))
	assert.Equal(t, 400*time.Millisecond, Backoff(2, base, time.Second))
	assert.Equal(t, time.Second, Backoff(5, base, time.Second))
	assert.Equal(t, 100*time.Millisecond, Backoff(-3, base, time.Second))
	assert.Equal(t, 1600*time.Millisecond, Backoff(4, base, 0))
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, KindRejected, classifyStatus(http.StatusBadRequest))
	assert.Equal(t, KindRejected, classifyStatus(http.StatusForbidden))
	assert.Equal(t, KindRejected, classifyStatus(http.StatusNotFound))
	assert.Equal(t, KindUnavailable, classifyStatus(http.StatusTooManyRequests))
	assert.Equal(t, KindUnavailable, classifyStatus(http.StatusInternalServerError))
	assert.Equal(t, KindUnavailable, classifyStatus(http.StatusGatewayTimeout))
	assert.Equal(t, KindProtocol, classifyStatus(http.StatusNotModified))
}

func TestRetryableTable(t *testing.T) {
	assert.True(t, retryable[KindUnavailable])
	assert.False(t, retryable[KindRateLimited])
	assert.False(t, retryable[KindRejected])
	assert.False(t, retryable[KindProtocol])
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, 7*time.Second, parseRetryAfter("7", now))
	assert.Zero(t, parseRetryAfter("", now))
	assert.Zero(t, parseRetryAfter("-1", now))
	assert.Zero(t, parseRetryAfter("soon", now))
	assert.Equal(t, 10*time.Second, parseRetryAfter(now.Add(10*time.Second).Format(http.TimeFormat), now))
}

func TestErrorMatching(t *testing.T) {
	err := error(&Error{Kind: KindRateLimited, Endpoint: "quote", RetryAfter: 1500 * time.Millisecond})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, 1500*time.Millisecond, RetryAfter(err))
	assert.Equal(t, "rate limited (quote): retry after 1.5s", err.Error())

	err = &Error{Kind: KindRejected, Endpoint: "profile", Status: 404, Err: ErrUnknownEndpoint}
	assert.ErrorIs(t, err, ErrUpstreamRejected)
	assert.ErrorIs(t, err, ErrUnknownEndpoint)
	assert.Equal(t, "upstream rejected (profile): status 404: endpoint is not registered", err.Error())

	_, ok := KindOf(ErrRateLimited)
	assert.False(t, ok)
}

func TestResponseCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := newResponseCache(2)
	require.NoError(t, err)
	now := time.Now()

	c.put("a", json.RawMessage(`1`), now, time.Hour)
	c.put("b", json.RawMessage(`2`), now, time.Hour)
	_, res := c.get("a", now)
	require.Equal(t, lookupHit, res)

	c.put("c", json.RawMessage(`3`), now, time.Hour)
	_, res = c.get("b", now)
	assert.Equal(t, lookupMiss, res)
	_, res = c.get("a", now)
	assert.Equal(t, lookupHit, res)
	assert.Equal(t, 2, c.len())
}

func TestResponseCacheExpiresLazily(t *testing.T) {
	c, err := newResponseCache(4)
	require.NoError(t, err)
	now := time.Now()

	c.put("q", json.RawMessage(`[]`), now, time.Minute)
	_, res := c.get("q", now.Add(time.Minute))
	assert.Equal(t, lookupHit, res)

	_, res = c.get("q", now.Add(time.Minute+time.Nanosecond))
	assert.Equal(t, lookupExpired, res)
	assert.Zero(t, c.len())
}

func TestRateBucketsArePerKey(t *testing.T) {
	b := newRateBuckets(1, time.Second, 1)
	now := time.Now()

	_, ok := b.take("k1", now)
	require.True(t, ok)
	wait, ok := b.take("k1", now)
	require.False(t, ok)
	assert.InDelta(t, float64(time.Second), float64(wait), float64(time.Millisecond))

	_, ok = b.take("k2", now)
	assert.True(t, ok)

	// A refused take consumes nothing.
	_, ok = b.take("k1", now.Add(time.Second))
	assert.True(t, ok)
}

func TestRateBucketsDisabled(t *testing.T) {
	b := newRateBuckets(0, time.Second, 0)
	now := time.Now()
	for range 100 {
		_, ok := b.take("k", now)
		require.True(t, ok)
	}
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.cacheLookups.WithLabelValues(string(lookupHit)).Inc()
	m.rateLimited.Inc()

	assert.InDelta(t, 1, testutil.ToFloat64(m.cacheLookups.WithLabelValues(string(lookupHit))), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.rateLimited), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "stockdesk_cache_lookups_total")
	assert.Contains(t, names, "stockdesk_rate_limited_total")
}

func TestCoalescedWaitersExcludeLeader(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		_, _ = io.WriteString(w, `[{"symbol":"AAPL"}]`)
	}))
	defer srv.Close()

	m := NewMetrics(prometheus.NewRegistry())
	c, err := New("k",
		WithBaseURL(srv.URL),
		WithEndpoints(Endpoint{Name: "quote", Path: "/v3/quote/{symbol}", Class: TTLQuote}),
		WithMetrics(m),
	)
	require.NoError(t, err)

	fetch := func(wg *sync.WaitGroup) {
		defer wg.Done()
		_, err := c.Fetch(context.Background(), "quote", Params{"symbol": "AAPL"})
		assert.NoError(t, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go fetch(&wg)
	<-started

	wg.Add(1)
	go fetch(&wg)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.InDelta(t, 1, testutil.ToFloat64(m.coalesced), 0)
}
