// Package upstream is the only path from stockdesk to Financial Modeling
// Prep. Client caches responses by request fingerprint, coalesces identical
// concurrent requests, throttles outbound calls per API key and reports
// every failure as a *Error of one of four kinds.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is FMP's API root.
const DefaultBaseURL = "https://financialmodelingprep.com/api"

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 32 << 20
	apiKeyParam    = "apikey"
	userAgent      = "stockdesk/1.0"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=upstream_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client mediates every call to FMP. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	endpoints  map[string]Endpoint
	ttls       map[TTLClass]time.Duration
	timeout    time.Duration

	cacheSize    int
	rateTokens   int
	rateInterval time.Duration
	rateBurst    int

	maxRetries  int
	baseBackoff time.Duration
	maxBackoff  time.Duration

	breakerFailures uint32
	breakerCooldown time.Duration

	cache   *responseCache
	buckets *rateBuckets
	breaker *gobreaker.CircuitBreaker
	group   singleflight.Group

	now     func() time.Time
	sleep   func(time.Duration)
	logger  *zap.Logger
	metrics *Metrics
}

// New creates a client for apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		baseURL:      DefaultBaseURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		endpoints:    make(map[string]Endpoint),
		ttls:         make(map[TTLClass]time.Duration, len(DefaultTTLs)),
		timeout:      defaultTimeout,
		cacheSize:    DefaultCacheEntries,
		rateTokens:   DefaultRateTokens,
		rateInterval: DefaultRateInterval,
		rateBurst:    DefaultRateBurst,
		maxRetries:   DefaultMaxRetries,
		baseBackoff:  DefaultBaseBackoff,
		maxBackoff:   DefaultMaxBackoff,
		now:          time.Now,
		sleep:        time.Sleep,
		logger:       zap.NewNop(),
	}
	for class, ttl := range DefaultTTLs {
		c.ttls[class] = ttl
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}

	cache, err := newResponseCache(c.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("response cache: %w", err)
	}
	c.cache = cache
	c.buckets = newRateBuckets(c.rateTokens, c.rateInterval, c.rateBurst)
	if c.breakerFailures > 0 {
		c.breaker = c.newBreaker()
	}
	return c, nil
}

func (c *Client) newBreaker() *gobreaker.CircuitBreaker {
	failures := c.breakerFailures
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "fmp",
		MaxRequests: 1,
		Timeout:     c.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			c.metrics.breakerState.WithLabelValues(name).Set(float64(to))
		},
		// Only transient failures count against the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUpstreamUnavailable)
		},
	})
}

// Endpoint returns the registered endpoint with the given name.
func (c *Client) Endpoint(name string) (Endpoint, bool) {
	ep, ok := c.endpoints[name]
	return ep, ok
}

// Fetch returns the JSON payload of endpoint for params. A fresh cached
// response is returned without any network call; otherwise callers with
// the same fingerprint share a single upstream request sequence. Cancelling
// ctx detaches only this caller: the shared request still completes and
// fills the cache, and the caller gets a KindUnavailable error wrapping
// ctx.Err().
func (c *Client) Fetch(ctx context.Context, endpoint string, params Params) (json.RawMessage, error) {
	ep, ok := c.endpoints[endpoint]
	if !ok {
		return nil, &Error{Kind: KindRejected, Endpoint: endpoint, Err: ErrUnknownEndpoint}
	}
	params = withoutKey(params)
	fp := NewFingerprint(ep.Name, params)

	if payload, ok := c.lookup(fp); ok {
		return clonePayload(payload), nil
	}

	// leader is written by the flight goroutine before the result is
	// delivered on ch, so reading it after the receive is safe.
	leader := false
	ch := c.group.DoChan(string(fp), func() (any, error) {
		leader = true
		return c.load(ep, params, fp)
	})
	select {
	case res := <-ch:
		if !leader {
			c.metrics.coalesced.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return clonePayload(res.Val.(json.RawMessage)), nil
	case <-ctx.Done():
		c.logger.Debug("caller detached from upstream fetch",
			zap.String("endpoint", ep.Name),
			zap.String("fingerprint", string(fp)),
		)
		return nil, &Error{Kind: KindUnavailable, Endpoint: ep.Name, Err: ctx.Err()}
	}
}

func (c *Client) lookup(fp Fingerprint) (json.RawMessage, bool) {
	payload, res := c.cache.get(fp, c.now())
	c.metrics.cacheLookups.WithLabelValues(string(res)).Inc()
	c.logger.Debug("cache lookup", zap.String("fingerprint", string(fp)), zap.String("result", string(res)))
	return payload, res == lookupHit
}

// load runs one attempt sequence for fp. It executes inside the
// singleflight group, so at most one load per fingerprint is running.
func (c *Client) load(ep Endpoint, params Params, fp Fingerprint) (json.RawMessage, error) {
	// A flight that ended between the caller's lookup and DoChan has
	// already stored its result.
	if payload, res := c.cache.get(fp, c.now()); res == lookupHit {
		return payload, nil
	}

	reqURL, err := c.buildURL(ep, params)
	if err != nil {
		return nil, &Error{Kind: KindRejected, Endpoint: ep.Name, Err: err}
	}

	var lastErr *Error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := Backoff(attempt-1, c.baseBackoff, c.maxBackoff)
			c.metrics.retries.WithLabelValues(ep.Name).Inc()
			c.logger.Info("retrying upstream request",
				zap.String("endpoint", ep.Name),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(lastErr),
			)
			c.sleep(wait)
		}

		if wait, ok := c.buckets.take(c.apiKey, c.now()); !ok {
			c.metrics.rateLimited.Inc()
			if lastErr != nil {
				// Out of budget mid-sequence: report the failure that
				// caused the retry rather than the local throttle.
				break
			}
			return nil, &Error{Kind: KindRateLimited, Endpoint: ep.Name, RetryAfter: wait}
		}

		payload, upErr := c.attempt(ep, reqURL)
		if upErr == nil {
			c.cache.put(fp, payload, c.now(), c.ttl(ep.Class))
			c.metrics.cacheEntries.Set(float64(c.cache.len()))
			return payload, nil
		}
		lastErr = upErr
		if !retryable[upErr.Kind] || breakerRefused(upErr) {
			return nil, upErr
		}
	}

	c.logger.Warn("upstream retries exhausted",
		zap.String("endpoint", ep.Name),
		zap.Int("retries", c.maxRetries),
		zap.Error(lastErr),
	)
	return nil, lastErr
}

// attempt performs one request, through the breaker when one is configured.
func (c *Client) attempt(ep Endpoint, reqURL string) (json.RawMessage, *Error) {
	if c.breaker == nil {
		return c.roundTrip(ep, reqURL)
	}

	var upErr *Error
	out, err := c.breaker.Execute(func() (any, error) {
		payload, e := c.roundTrip(ep, reqURL)
		if e != nil {
			upErr = e
			return nil, e
		}
		return payload, nil
	})
	if err != nil {
		if upErr != nil {
			return nil, upErr
		}
		c.metrics.requests.WithLabelValues(ep.Name, "breaker_open").Inc()
		return nil, &Error{Kind: KindUnavailable, Endpoint: ep.Name, Err: err}
	}
	return out.(json.RawMessage), nil
}

func breakerRefused(err *Error) bool {
	return errors.Is(err.Err, gobreaker.ErrOpenState) || errors.Is(err.Err, gobreaker.ErrTooManyRequests)
}

// roundTrip issues a single GET and classifies the outcome.
func (c *Client) roundTrip(ep Endpoint, reqURL string) (json.RawMessage, *Error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	payload, upErr := c.do(ctx, ep, reqURL)
	c.metrics.duration.WithLabelValues(ep.Name).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if upErr != nil {
		outcome = upErr.Kind.String()
	}
	c.metrics.requests.WithLabelValues(ep.Name, outcome).Inc()
	return payload, upErr
}

func (c *Client) do(ctx context.Context, ep Endpoint, reqURL string) (json.RawMessage, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindRejected, Endpoint: ep.Name, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Endpoint: ep.Name, Err: scrubURLError(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Endpoint: ep.Name, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := &Error{
			Kind:     classifyStatus(resp.StatusCode),
			Endpoint: ep.Name,
			Status:   resp.StatusCode,
			Err:      errors.New(bodySnippet(body)),
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		}
		return nil, e
	}

	if !json.Valid(body) {
		return nil, &Error{Kind: KindProtocol, Endpoint: ep.Name, Status: resp.StatusCode, Err: ErrMalformedPayload}
	}
	if msg, ok := providerError(body); ok {
		return nil, &Error{Kind: KindRejected, Endpoint: ep.Name, Status: resp.StatusCode, Err: errors.New(msg)}
	}
	return json.RawMessage(body), nil
}

func (c *Client) buildURL(ep Endpoint, params Params) (string, error) {
	path, query, err := ep.resolve(params)
	if err != nil {
		return "", err
	}
	query.Set(apiKeyParam, c.apiKey)
	return c.baseURL + path + "?" + query.Encode(), nil
}

func (c *Client) ttl(class TTLClass) time.Duration {
	if ttl, ok := c.ttls[class]; ok {
		return ttl
	}
	return DefaultTTLs[TTLQuote]
}

// Status is a point-in-time view of the client's local state.
type Status struct {
	CacheEntries    int     `json:"cache_entries"`
	TokensAvailable float64 `json:"tokens_available"`
	Breaker         string  `json:"breaker"`
	Endpoints       int     `json:"endpoints"`
}

// Status reports cache occupancy, remaining rate budget and breaker state.
func (c *Client) Status() Status {
	st := Status{
		CacheEntries:    c.cache.len(),
		TokensAvailable: c.buckets.tokens(c.apiKey, c.now()),
		Breaker:         "disabled",
		Endpoints:       len(c.endpoints),
	}
	if c.breaker != nil {
		st.Breaker = c.breaker.State().String()
	}
	return st
}

// providerError detects FMP's {"Error Message": "..."} envelope.
func providerError(body []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}
	var envelope struct {
		ErrorMessage *string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.ErrorMessage == nil {
		return "", false
	}
	return *envelope.ErrorMessage, true
}

// scrubURLError drops the request URL, which carries the API key, from
// transport errors.
func scrubURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", strings.ToLower(uerr.Op), uerr.Err)
	}
	return err
}

func bodySnippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty body"
	}
	if len(s) > max {
		s = s[:max] + "..."
	}
	return strconv.Quote(s)
}

func withoutKey(params Params) Params {
	if _, ok := params[apiKeyParam]; !ok {
		return params
	}
	out := make(Params, len(params))
	for k, v := range params {
		if k != apiKeyParam {
			out[k] = v
		}
	}
	return out
}

func clonePayload(p json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), p...)
}
