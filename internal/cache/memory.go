package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/ifhere/internal/model"
)

// MemoryCache keeps encoded stories in process memory until they expire
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates a memory cache. Expired entries are swept every
// cleanupInterval.
func NewMemoryCache(ttl, cleanupInterval time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryCache{items: gocache.New(ttl, cleanupInterval)}
}

// Get returns the story stored for key. Undecodable entries are dropped.
func (c *MemoryCache) Get(key Key) (*model.TranslatedStory, bool) {
	id := key.ID()
	v, found := c.items.Get(id)
	if !found {
		return nil, false
	}
	data, ok := v.([]byte)
	if !ok {
		c.items.Delete(id)
		return nil, false
	}
	ts, err := decode(data)
	if err != nil {
		c.items.Delete(id)
		return nil, false
	}
	return ts, true
}

// Put stores ts under key with the default TTL
func (c *MemoryCache) Put(key Key, ts *model.TranslatedStory) error {
	data, err := encode(ts)
	if err != nil {
		return err
	}
	c.items.SetDefault(key.ID(), data)
	return nil
}

// putRaw stores already encoded data, used when promoting disk hits
func (c *MemoryCache) putRaw(key Key, data []byte) {
	c.items.SetDefault(key.ID(), data)
}

// Delete removes key
func (c *MemoryCache) Delete(key Key) error {
	c.items.Delete(key.ID())
	return nil
}

// Len returns the number of entries, expired ones included until swept
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}

// Clear removes every entry
func (c *MemoryCache) Clear() error {
	c.items.Flush()
	return nil
}
