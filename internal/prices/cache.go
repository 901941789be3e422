package prices

import (
	"sync"
	"time"
)

// PriceCache holds the last-known-good quote per symbol with explicit
// staleness bounds. It is plain shared state behind a mutex, passed into
// whoever needs it rather than living at package level.
type PriceCache struct {
	mu       sync.RWMutex
	quotes   map[string]Quote
	freshFor time.Duration
	maxStale time.Duration
}

// NewPriceCache builds a cache where quotes younger than freshFor are
// served without refetching and quotes older than maxStale are discarded.
// A maxStale of zero means stale quotes never expire.
func NewPriceCache(freshFor, maxStale time.Duration) *PriceCache {
	return &PriceCache{
		quotes:   make(map[string]Quote),
		freshFor: freshFor,
		maxStale: maxStale,
	}
}

func (c *PriceCache) Put(q Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[q.Symbol] = q
}

// Get returns the cached quote for symbol. fresh reports whether it is
// recent enough to skip an upstream fetch; ok whether it is present and
// still within the hard staleness ceiling.
func (c *PriceCache) Get(symbol string, now time.Time) (q Quote, fresh, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q, ok = c.quotes[symbol]
	if !ok {
		return Quote{}, false, false
	}
	age := now.Sub(q.AsOf)
	if c.maxStale > 0 && age > c.maxStale {
		return Quote{}, false, false
	}
	return q, age <= c.freshFor, true
}
