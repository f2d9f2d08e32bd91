// ABOUTME: Two-tier cache with a bounded in-memory LRU in front of an optional Redis tier
// ABOUTME: Read-through with L1 backfill; the secondary tier is strictly best-effort

package tiered

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"citations-app-api/core/interfaces"
	"citations-app-api/pkg/metrics"
)

// ErrCacheMiss is the error returned when a key is not found in any tier.
var ErrCacheMiss = errors.New("cache: key not found")

// maxBackfillTTL caps how long an entry promoted from the secondary
// tier may live locally when the tier cannot report the remaining TTL.
// A promoted copy must never outlive the entry it was copied from by
// more than this window.
const maxBackfillTTL = time.Minute

// entry holds one cached value with its own deadline. A zero deadline
// means the entry lives until evicted.
type entry struct {
	data      []byte
	expiresAt time.Time
}

// Cache implements interfaces.StatCache over two tiers: a size-bounded
// expiring LRU and an optional distributed tier. The secondary tier
// being down degrades hit rate, never correctness.
type Cache struct {
	l1     *expirable.LRU[string, entry]
	l2     interfaces.Cache
	logger interfaces.Logger

	mu     sync.Mutex
	hits   int64
	misses int64
}

// New creates a tiered cache. size bounds the L1 entry count and
// maxAge bounds how long any L1 entry may live regardless of its own
// TTL. l2 may be nil when no distributed tier is configured.
func New(size int, maxAge time.Duration, l2 interfaces.Cache, logger interfaces.Logger) *Cache {
	if size <= 0 {
		size = 1024
	}

	return &Cache{
		l1:     expirable.NewLRU[string, entry](size, nil, maxAge),
		l2:     l2,
		logger: logger,
	}
}

// Get checks the local tier first, then the secondary tier. A hit on
// the secondary tier backfills the local tier so the next lookup stays
// local. Secondary-tier failures are logged and treated as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if e, ok := c.l1.Get(key); ok {
		if e.expiresAt.IsZero() || time.Now().Before(e.expiresAt) {
			c.recordHit("l1")
			return clone(e.data), nil
		}
		c.l1.Remove(key)
	}

	if c.l2 != nil {
		data, remaining, err := c.l2Get(ctx, key)
		if err == nil && data != nil {
			c.l1.Add(key, entry{data: clone(data), expiresAt: backfillDeadline(remaining)})
			c.recordHit("l2")
			return data, nil
		}
		if err != nil && ctx.Err() == nil && c.logger != nil {
			c.logger.Debug("secondary cache tier miss", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	c.recordMiss()
	return nil, ErrCacheMiss
}

// l2Get reads from the secondary tier, using the TTL-aware form when
// the tier supports it so the backfilled copy inherits the remaining
// lifetime.
func (c *Cache) l2Get(ctx context.Context, key string) ([]byte, time.Duration, error) {
	if tc, ok := c.l2.(interfaces.TTLCache); ok {
		return tc.GetWithTTL(ctx, key)
	}

	data, err := c.l2.Get(ctx, key)
	return data, 0, err
}

// backfillDeadline bounds a promoted entry's local lifetime: the
// remaining secondary-tier TTL when known, maxBackfillTTL otherwise,
// and never more than maxBackfillTTL either way.
func backfillDeadline(remaining time.Duration) time.Time {
	if remaining <= 0 || remaining > maxBackfillTTL {
		remaining = maxBackfillTTL
	}
	return time.Now().Add(remaining)
}

// Set writes to the local tier always and to the secondary tier
// best-effort: a failed distributed write never fails the call.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{data: clone(value)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.l1.Add(key, e)

	if c.l2 != nil {
		if err := c.l2.Set(ctx, key, value, ttl); err != nil && c.logger != nil {
			c.logger.Warn("secondary cache tier write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	return nil
}

// Delete removes the key from both tiers.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.l1.Remove(key)
	if c.l2 != nil {
		if err := c.l2.Delete(ctx, key); err != nil && c.logger != nil {
			c.logger.Warn("secondary cache tier delete failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return nil
}

// Stats returns cumulative counters since construction.
func (c *Cache) Stats() interfaces.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := interfaces.CacheStats{
		Hits:   c.hits,
		Misses: c.misses,
		Size:   c.l1.Len(),
	}

	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}

	return stats
}

func (c *Cache) recordHit(tier string) {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	metrics.CacheMissesTotal.Inc()
}

func clone(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
