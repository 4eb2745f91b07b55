package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/ifhere/internal/model"
)

// DiskCache lays stories out as <dir>/<country>/<story>/<lang>-<digest>.json
// so a country or story can be inspected or removed by hand
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a disk cache rooted at dir. A non-positive ttl keeps
// entries until cleared.
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl}
}

// diskEntry is the file envelope. Key is checked on read, so a digest
// collision reads as a miss.
type diskEntry struct {
	Key       Key             `json:"key"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at,omitempty"`
	Story     json.RawMessage `json:"story"`
}

func (e *diskEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get returns the story for key. Expired or unreadable files are removed.
func (c *DiskCache) Get(key Key) (*model.TranslatedStory, bool) {
	entry, ok := c.read(key)
	if !ok {
		return nil, false
	}
	ts, err := decode(entry.Story)
	if err != nil {
		_ = c.Delete(key)
		return nil, false
	}
	return ts, true
}

// read loads and checks the envelope for key
func (c *DiskCache) read(key Key) (*diskEntry, bool) {
	path := c.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Key != key || entry.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false
	}
	return &entry, true
}

// Put writes ts for key, replacing any previous file atomically
func (c *DiskCache) Put(key Key, ts *model.TranslatedStory) error {
	story, err := encode(ts)
	if err != nil {
		return err
	}

	now := time.Now()
	entry := diskEntry{Key: key, CreatedAt: now, Story: story}
	if c.ttl > 0 {
		entry.ExpiresAt = now.Add(c.ttl)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry %s: %w", key, err)
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("store cache file: %w", err)
	}
	return nil
}

// Delete removes the file for key. A missing file is not an error.
func (c *DiskCache) Delete(key Key) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// DeleteStory removes every cached rendering of storyID in every country
func (c *DiskCache) DeleteStory(storyID string) error {
	countries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}
	var errs []error
	for _, country := range countries {
		if country.IsDir() {
			errs = append(errs, os.RemoveAll(filepath.Join(c.dir, country.Name(), pathSegment(storyID))))
		}
	}
	return errors.Join(errs...)
}

// Clear removes the whole cache directory
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

func (c *DiskCache) path(key Key) string {
	id := key.ID()
	name := pathSegment(key.Language) + "-" + id[len(id)-16:] + ".json"
	return filepath.Join(c.dir, pathSegment(key.Country), pathSegment(key.StoryID), name)
}

// pathSegment maps a request value to a safe directory name. Anything
// outside [a-z0-9-] becomes '_', so raw requested codes cannot escape dir.
func pathSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, strings.ToLower(s))
	if s == "" {
		return "_"
	}
	return s
}
