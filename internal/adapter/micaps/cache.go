package micaps

import (
	"context"
	"sync"

	"github.com/cycle13/weather-map-service/internal/compose"
	"github.com/cycle13/weather-map-service/internal/field"
	"github.com/cycle13/weather-map-service/internal/observability"
)

// CachedProvider wraps a GridProvider with an in-memory LRU cache. Forecast
// files are immutable once distributed, so entries never expire; old runs
// simply age out of the LRU.
type CachedProvider struct {
	inner   compose.GridProvider
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a grid provider.
func NewCachedProvider(inner compose.GridProvider, maxEntries int, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// ModelGrid serves from cache when possible. Grids are cloned on the way in
// and out because composition recipes mask values in place.
func (c *CachedProvider) ModelGrid(ctx context.Context, directory, filename string) (*field.Grid, error) {
	key := directory + "|" + filename
	if grid, ok := c.cache.get(key); ok {
		c.metrics.GridCache.WithLabelValues("hit").Inc()
		return grid, nil
	}
	c.metrics.GridCache.WithLabelValues("miss").Inc()

	grid, err := c.inner.ModelGrid(ctx, directory, filename)
	if err != nil {
		// Errors are never cached; a missing file may arrive on the next try.
		return nil, err
	}
	c.cache.put(key, grid)
	return grid, nil
}

// lruCache is a simple thread-safe LRU cache for grids.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *field.Grid
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (*field.Grid, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value.Clone(), true
}

func (c *lruCache) put(key string, value *field.Grid) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := value.Clone()
	if e, ok := c.entries[key]; ok {
		e.value = stored
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: stored}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
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
