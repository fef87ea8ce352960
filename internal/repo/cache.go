package repo

import (
	"sync"

	"github.com/Faultbox/primio/pkg/rid"
)

// Cache is a simple in-memory cache of decompressed resources.
type Cache struct {
	data map[rid.ID][]byte
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[rid.ID][]byte),
	}
}

// Get retrieves a resource from cache.
func (c *Cache) Get(id rid.ID) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[id]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores a resource in cache.
func (c *Cache) Set(id rid.ID, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[id] = data
}

// Delete drops a resource from cache.
func (c *Cache) Delete(id rid.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[rid.ID][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
