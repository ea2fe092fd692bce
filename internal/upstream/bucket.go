package upstream

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default outbound budget per API key. The burst covers the widest report
// fan-out (a DCF issues six fetches at once) on a cold cache.
const (
	DefaultRateTokens   = 5
	DefaultRateInterval = time.Second
	DefaultRateBurst    = 10
)

// rateBuckets holds one token bucket per API key. take never blocks: an
// empty bucket reports how long until the next token instead.
type rateBuckets struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*rate.Limiter
}

// newRateBuckets allows tokens requests per interval with the given burst,
// never smaller than tokens. A non-positive token count disables limiting.
func newRateBuckets(tokens int, interval time.Duration, burst int) *rateBuckets {
	b := &rateBuckets{buckets: make(map[string]*rate.Limiter)}
	if tokens <= 0 || interval <= 0 {
		b.limit = rate.Inf
		b.burst = 1
		return b
	}
	b.limit = rate.Limit(float64(tokens) / interval.Seconds())
	b.burst = max(burst, tokens)
	return b
}

func (b *rateBuckets) bucket(key string) *rate.Limiter {
	lim, ok := b.buckets[key]
	if !ok {
		lim = rate.NewLimiter(b.limit, b.burst)
		b.buckets[key] = lim
	}
	return lim
}

// take consumes one token for key at now. When the bucket is empty nothing
// is consumed and the wait until the next token is returned.
func (b *rateBuckets) take(key string, now time.Time) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := b.bucket(key).ReserveN(now, 1)
	if !r.OK() {
		return 0, false
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return wait, false
	}
	return 0, true
}

// tokens reports the tokens currently available for key.
func (b *rateBuckets) tokens(key string, now time.Time) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bucket(key).TokensAt(now)
}
