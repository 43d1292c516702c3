package bmfont

import (
	"sync"
	"sync/atomic"
)

// Cache loads each font descriptor at most once per process. Failed loads
// are cached too: a descriptor that failed to parse keeps failing without
// touching the filesystem again. Entries live for the process lifetime;
// there is no eviction.
//
// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry

	hits   atomic.Uint64
	misses atomic.Uint64
}

type cacheEntry struct {
	once sync.Once
	font *Font
	err  error
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Load returns the font for the given descriptor path, reading and
// parsing it on first use. Concurrent loads of the same path share one
// parse; every later call returns the same result, error included.
func (c *Cache) Load(path string) (*Font, error) {
	c.mu.Lock()
	e, ok := c.entries[path]
	if !ok {
		e = &cacheEntry{}
		c.entries[path] = e
	}
	c.mu.Unlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}

	e.once.Do(func() {
		e.font, e.err = Load(path)
	})
	return e.font, e.err
}

// Stats returns the number of cache hits and misses so far.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached entries, failed loads included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
