package uploads

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	seconds float64
	expires time.Time
}

// CachingProber wraps another DurationProber with a TTL-based in-memory cache.
// Media blobs are immutable once stored, so cached probes stay accurate for
// the full TTL.
type CachingProber struct {
	base DurationProber
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingProber returns a DurationProber that caches probes for the provided TTL.
func NewCachingProber(base DurationProber, ttl time.Duration) *CachingProber {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProber{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// Probe returns a cached duration when available, otherwise it delegates to
// the underlying prober and stores the result.
func (c *CachingProber) Probe(ctx context.Context, location string) (float64, error) {
	if c == nil || c.base == nil {
		return 0, ErrProberUnavailable
	}

	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[location]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.seconds, nil
	}

	seconds, err := c.base.Probe(ctx, location)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.items[location] = cacheEntry{seconds: seconds, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return seconds, nil
}
