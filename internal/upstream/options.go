package upstream

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another FMP host, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for outbound requests.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithEndpoints registers the routes the client may call. Fetching an
// endpoint that was never registered fails without a network call.
func WithEndpoints(endpoints ...Endpoint) Option {
	return func(c *Client) {
		for _, ep := range endpoints {
			c.endpoints[ep.Name] = ep
		}
	}
}

// WithTTL overrides the cache lifetime of one TTL class.
func WithTTL(class TTLClass, ttl time.Duration) Option {
	return func(c *Client) {
		c.ttls[class] = ttl
	}
}

// WithCacheSize bounds the number of cached responses.
func WithCacheSize(entries int) Option {
	return func(c *Client) {
		c.cacheSize = entries
	}
}

// WithRateLimit allows tokens outbound requests per interval for the key.
// The burst is reset to tokens; apply WithRateBurst afterwards to widen it.
func WithRateLimit(tokens int, interval time.Duration) Option {
	return func(c *Client) {
		c.rateTokens = tokens
		c.rateInterval = interval
		c.rateBurst = tokens
	}
}

// WithRateBurst sets how many requests a full bucket admits at once. Values
// below the token count are raised to it.
func WithRateBurst(burst int) Option {
	return func(c *Client) {
		c.rateBurst = burst
	}
}

// WithRetry sets the retry bound and the backoff window.
func WithRetry(maxRetries int, baseBackoff, maxBackoff time.Duration) Option {
	return func(c *Client) {
		if maxRetries < 0 {
			maxRetries = 0
		}
		c.maxRetries = maxRetries
		c.baseBackoff = baseBackoff
		c.maxBackoff = maxBackoff
	}
}

// WithBreaker enables a circuit breaker that opens after failures
// consecutive unavailable attempts and stays open for cooldown.
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(c *Client) {
		c.breakerFailures = failures
		c.breakerCooldown = cooldown
	}
}

// WithTimeout bounds a single outbound attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the collectors the client reports to.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithClock replaces time.Now for cache expiry and rate accounting.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithSleep replaces the backoff sleep.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}
