package openmeteo

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/marine-risk-service/internal/domain"
	"github.com/couchcryptid/marine-risk-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedSource wraps a MarineSource with an in-memory LRU cache whose entries
// expire after a fixed TTL.
type CachedSource struct {
	inner   domain.MarineSource
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a marine source.
func NewCachedSource(inner domain.MarineSource, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries, ttl, clock),
		metrics: metrics,
	}
}

func (c *CachedSource) Current(ctx context.Context, coord domain.Coordinate, timezone string) (domain.MarineConditions, error) {
	key := coord.Key() + "|" + timezone
	conditions, status := c.cache.get(key)
	c.metrics.CacheLookups.WithLabelValues(status).Inc()
	if status == lookupHit {
		return conditions, nil
	}

	conditions, err := c.inner.Current(ctx, coord, timezone)
	if err != nil {
		return conditions, err
	}
	c.cache.put(key, conditions)
	return conditions, nil
}

const (
	lookupHit     = "hit"
	lookupMiss    = "miss"
	lookupExpired = "expired"
)

// lruCache is a thread-safe LRU cache of MarineConditions with per-entry expiry.
type lruCache struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     domain.MarineConditions
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.MarineConditions, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.MarineConditions{}, lookupMiss
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return domain.MarineConditions{}, lookupExpired
	}
	c.moveToFront(e)
	return e.value, lookupHit
}

func (c *lruCache) put(key string, value domain.MarineConditions) {
	if c.maxEntries <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
