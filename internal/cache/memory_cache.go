package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type cacheItem struct {
	value      []byte
	expiration time.Time
}

func (i *cacheItem) expired(now time.Time) bool {
	return now.After(i.expiration)
}

// MemoryCache implements Cache with a process-local map.
// Expired entries are dropped lazily on read and by a periodic sweep.
type MemoryCache struct {
	mu            sync.Mutex
	items         map[string]*cacheItem
	maxMemory     int64
	currentMemory int64
	hits          int64
	misses        int64
	evictions     int64
	done          chan struct{}
	closeOnce     sync.Once
	closed        bool
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(config *CacheConfig) *MemoryCache {
	if config == nil {
		config = DefaultCacheConfig()
	}

	c := &MemoryCache{
		items:     make(map[string]*cacheItem),
		maxMemory: config.MaxMemory,
		done:      make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go c.sweep(config.CleanupInterval)
	}
	return c
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCacheDisabled
	}

	item, ok := c.items[key]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, ErrKeyNotFound
	}
	if item.expired(time.Now()) {
		c.remove(key, item)
		atomic.AddInt64(&c.misses, 1)
		return nil, ErrKeyNotFound
	}

	atomic.AddInt64(&c.hits, 1)
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheDisabled
	}

	if old, ok := c.items[key]; ok {
		c.remove(key, old)
	}

	item := &cacheItem{value: append([]byte(nil), value...), expiration: time.Now().Add(ttl)}
	c.items[key] = item
	c.currentMemory += itemSize(key, item)
	c.evictIfNeeded(key)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.items[key]; ok {
		c.remove(key, item)
	}
	return nil
}

func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		c.items = make(map[string]*cacheItem)
		c.currentMemory = 0
		c.closed = true
		c.mu.Unlock()
	})
	return nil
}

func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	now := time.Now()
	var active int64
	for _, item := range c.items {
		if !item.expired(now) {
			active++
		}
	}
	memory := c.currentMemory
	c.mu.Unlock()

	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	hitRatio := 0.0
	if total := hits + misses; total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return CacheStats{
		Hits:        hits,
		Misses:      misses,
		HitRatio:    hitRatio,
		Keys:        active,
		MemoryUsage: memory,
		Evictions:   atomic.LoadInt64(&c.evictions),
	}
}

func (c *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, item := range c.items {
				if item.expired(now) {
					c.remove(key, item)
				}
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

// evictIfNeeded drops expired entries, then arbitrary ones, until the memory budget holds.
// The entry just written is kept. Caller holds mu.
func (c *MemoryCache) evictIfNeeded(keep string) {
	if c.maxMemory <= 0 || c.currentMemory <= c.maxMemory {
		return
	}

	now := time.Now()
	for key, item := range c.items {
		if key != keep && item.expired(now) {
			c.remove(key, item)
			atomic.AddInt64(&c.evictions, 1)
		}
	}
	for key, item := range c.items {
		if c.currentMemory <= c.maxMemory {
			return
		}
		if key == keep {
			continue
		}
		c.remove(key, item)
		atomic.AddInt64(&c.evictions, 1)
	}
}

// remove deletes key and releases its accounted memory. Caller holds mu.
func (c *MemoryCache) remove(key string, item *cacheItem) {
	delete(c.items, key)
	c.currentMemory -= itemSize(key, item)
}

// itemSize is a rough estimate: key + value + 64 bytes of overhead
func itemSize(key string, item *cacheItem) int64 {
	return int64(len(key) + len(item.value) + 64)
}
