package upstream

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultCacheEntries bounds the response cache when no size is configured.
const DefaultCacheEntries = 1024

// cacheEntry is one stored upstream payload.
type cacheEntry struct {
	payload   json.RawMessage
	fetchedAt time.Time
	ttl       time.Duration
}

func (e cacheEntry) expired(now time.Time) bool {
	return now.Sub(e.fetchedAt) > e.ttl
}

type lookupResult string

const (
	lookupHit     lookupResult = "hit"
	lookupMiss    lookupResult = "miss"
	lookupExpired lookupResult = "expired"
)

// responseCache is a size-bounded LRU of payloads keyed by fingerprint.
// Expired entries are dropped when they are read.
type responseCache struct {
	mu  sync.Mutex
	lru *simplelru.LRU[Fingerprint, cacheEntry]
}

func newResponseCache(size int) (*responseCache, error) {
	if size <= 0 {
		size = DefaultCacheEntries
	}
	l, err := simplelru.NewLRU[Fingerprint, cacheEntry](size, nil)
	if err != nil {
		return nil, err
	}
	return &responseCache{lru: l}, nil
}

func (c *responseCache) get(fp Fingerprint, now time.Time) (json.RawMessage, lookupResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(fp)
	if !ok {
		return nil, lookupMiss
	}
	if e.expired(now) {
		c.lru.Remove(fp)
		return nil, lookupExpired
	}
	return e.payload, lookupHit
}

func (c *responseCache) put(fp Fingerprint, payload json.RawMessage, now time.Time, ttl time.Duration) {
	c.mu.Lock()
	c.lru.Add(fp, cacheEntry{payload: payload, fetchedAt: now, ttl: ttl})
	c.mu.Unlock()
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
