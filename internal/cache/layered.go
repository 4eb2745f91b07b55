package cache

import (
	"errors"

	"github.com/ppiankov/ifhere/internal/model"
)

// LayeredCache answers from memory first and falls back to disk, promoting
// disk hits so repeated requests stay in memory
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache combines a memory and a disk layer
func NewLayeredCache(memory *MemoryCache, disk *DiskCache) *LayeredCache {
	return &LayeredCache{memory: memory, disk: disk}
}

// Get checks memory, then disk
func (c *LayeredCache) Get(key Key) (*model.TranslatedStory, bool) {
	if ts, ok := c.memory.Get(key); ok {
		return ts, true
	}
	entry, ok := c.disk.read(key)
	if !ok {
		return nil, false
	}
	ts, err := decode(entry.Story)
	if err != nil {
		_ = c.disk.Delete(key)
		return nil, false
	}
	c.memory.putRaw(key, entry.Story)
	return ts, true
}

// Put writes both layers
func (c *LayeredCache) Put(key Key, ts *model.TranslatedStory) error {
	if err := c.memory.Put(key, ts); err != nil {
		return err
	}
	return c.disk.Put(key, ts)
}

// Delete removes key from both layers
func (c *LayeredCache) Delete(key Key) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}
