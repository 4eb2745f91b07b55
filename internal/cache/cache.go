// Package cache memoizes translated stories in memory and, optionally,
// on disk.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/ppiankov/ifhere/internal/model"
)

// Cache stores translated stories by request
type Cache interface {
	Get(key Key) (*model.TranslatedStory, bool)
	Put(key Key, ts *model.TranslatedStory) error
	Delete(key Key) error
	Clear() error
}

// Key identifies one translation request. Country is the code as
// requested, so unknown codes that fell back get their own entry.
type Key struct {
	StoryID       string `json:"story_id"`
	Country       string `json:"country"`
	Language      string `json:"language"`
	Contextualize bool   `json:"contextualize"`
	Inline        bool   `json:"inline"`
}

// ID returns a stable digest of every key field
func (k Key) ID() string {
	parts := []string{k.StoryID, k.Country, k.Language,
		strconv.FormatBool(k.Contextualize), strconv.FormatBool(k.Inline)}
	hash := blake3.Sum256([]byte(strings.Join(parts, "\x00")))
	return "ifhere:v1:" + hex.EncodeToString(hash[:16])
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s ctx=%t inline=%t", k.Country, k.StoryID, k.Language, k.Contextualize, k.Inline)
}

// New builds the cache described by cfg. It returns nil when caching is
// disabled; a config without a dir gets the memory layer only.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(NewMemoryCache(cfg.MemoryTTL, 10*time.Minute), NewDiskCache(cfg.Dir, cfg.DiskTTL))
}

// Stories are held encoded so callers never share slices with the cache
func encode(ts *model.TranslatedStory) ([]byte, error) {
	data, err := json.Marshal(ts)
	if err != nil {
		return nil, fmt.Errorf("encode story %s: %w", ts.ID, err)
	}
	return data, nil
}

func decode(data []byte) (*model.TranslatedStory, error) {
	var ts model.TranslatedStory
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("decode story: %w", err)
	}
	return &ts, nil
}
