package upstream

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Retry defaults.
const (
	DefaultMaxRetries  = 2
	DefaultBaseBackoff = 250 * time.Millisecond
	DefaultMaxBackoff  = 2 * time.Second
)

// retryable says which failure kinds the client retries on its own.
var retryable = map[Kind]bool{
	KindRateLimited: false,
	KindRejected:    false,
	KindUnavailable: true,
	KindProtocol:    false,
}

// Backoff returns the pause before retry number attempt (zero-based):
// base doubled per attempt, capped at max when max is positive.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(base) * math.Pow(2, float64(attempt))
	if max > 0 && d > float64(max) {
		d = float64(max)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// classifyStatus maps a non-2xx status to a failure kind.
func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindUnavailable
	case status >= 500:
		return KindUnavailable
	case status >= 400:
		return KindRejected
	default:
		return KindProtocol
	}
}

// parseRetryAfter reads a Retry-After header in its delay-seconds or
// HTTP-date form.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
