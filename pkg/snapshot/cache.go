package snapshot

import (
	"container/list"
	"sync"
	"time"

	"github.com/prudhvigodithi/shardmetrics/pkg/types"
)

// PublishedViews is the bundle of derived views a RolloverController
// hands to downstream consumers when a window closes: latency,
// per-operation aggregates, thread utilization, and whatever was
// carried forward as inflight.
type PublishedViews struct {
	WindowStart       int64
	Latency           []types.LatencyRecord
	LatencyByOp       []types.LatencyByOpRecord
	ThreadUtilization []types.ThreadUtilizationRecord
	Inflight          []types.InflightRecord
}

// viewCache is an LRU+TTL cache of published views keyed by window
// start. It exists because a WindowBuffer is destroyed shortly after
// its views are computed: a consumer that is briefly behind can still
// retrieve a recently-closed window's views here instead of racing
// the buffer's destruction.
type viewCache struct {
	capacity int
	ttl      time.Duration

	mu    sync.Mutex
	cache map[int64]*viewCacheEntry
	lru   *list.List
}

type viewCacheEntry struct {
	windowStart int64
	views       *PublishedViews
	timestamp   time.Time
	element     *list.Element
}

func newViewCache(capacity int, ttl time.Duration) *viewCache {
	return &viewCache{
		capacity: capacity,
		ttl:      ttl,
		cache:    make(map[int64]*viewCacheEntry),
		lru:      list.New(),
	}
}

// Put stores (or refreshes) a window's published views.
func (c *viewCache) Put(windowStart int64, views *PublishedViews) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.cache[windowStart]; exists {
		entry.views = views
		entry.timestamp = time.Now()
		c.lru.MoveToFront(entry.element)
		return
	}

	entry := &viewCacheEntry{
		windowStart: windowStart,
		views:       views,
		timestamp:   time.Now(),
	}
	entry.element = c.lru.PushFront(entry)
	c.cache[windowStart] = entry

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.removeLocked(oldest.Value.(*viewCacheEntry).windowStart)
		}
	}
}

// Get retrieves a window's published views, if still cached and not
// expired.
func (c *viewCache) Get(windowStart int64) (*PublishedViews, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.cache[windowStart]
	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl {
		c.removeLocked(windowStart)
		return nil, false
	}

	c.lru.MoveToFront(entry.element)
	return entry.views, true
}

func (c *viewCache) removeLocked(windowStart int64) {
	if entry, exists := c.cache[windowStart]; exists {
		c.lru.Remove(entry.element)
		delete(c.cache, windowStart)
	}
}

// Size returns the number of windows currently cached.
func (c *viewCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}
