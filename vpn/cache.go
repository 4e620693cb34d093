package vpn

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// cacheEntry is the on-disk cache record for one URL.
type cacheEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Content   []byte    `json:"content"`
}

// Cache stores raw responses in memory (TTL-evicted LRU) backed by JSON
// files on disk. Disk entries survive restarts and serve as a stale
// fallback when a site blocks every retry.
type Cache struct {
	dir string
	ttl time.Duration
	mem *expirable.LRU[string, cacheEntry]
}

// NewCache creates a cache rooted at dir with the given freshness window.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
		}
	}
	return &Cache{
		dir: dir,
		ttl: ttl,
		mem: expirable.NewLRU[string, cacheEntry](512, nil, ttl),
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// fileFor maps a URL to a filesystem-safe cache filename.
func (c *Cache) fileFor(url string) string {
	name := unsafeChars.ReplaceAllString(url, "_")
	if len(name) > 200 {
		name = name[:200]
	}
	return filepath.Join(c.dir, name+".json")
}

// Get returns cached content for url if it is younger than the TTL.
func (c *Cache) Get(url string) ([]byte, bool) {
	entry, ok := c.lookup(url)
	if !ok || time.Since(entry.Timestamp) > c.ttl {
		return nil, false
	}
	return entry.Content, true
}

// GetStale returns cached content for url regardless of age. Used as the
// last fallback after every retry and proxy has failed.
func (c *Cache) GetStale(url string) ([]byte, bool) {
	entry, ok := c.lookup(url)
	if !ok {
		return nil, false
	}
	return entry.Content, true
}

func (c *Cache) lookup(url string) (cacheEntry, bool) {
	if entry, ok := c.mem.Get(url); ok {
		return entry, true
	}
	if c.dir == "" {
		return cacheEntry{}, false
	}
	data, err := os.ReadFile(c.fileFor(url))
	if err != nil {
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return cacheEntry{}, false
	}
	return entry, true
}

// Put stores content for url in memory and on disk. Disk write failures
// are ignored; the memory tier still serves the session.
func (c *Cache) Put(url string, content []byte) {
	entry := cacheEntry{Timestamp: time.Now(), Content: content}
	c.mem.Add(url, entry)
	if c.dir == "" {
		return
	}
	if data, err := json.Marshal(entry); err == nil {
		_ = os.WriteFile(c.fileFor(url), data, 0o644)
	}
}

// Purge drops every entry older than the TTL from disk and clears memory.
func (c *Cache) Purge() error {
	c.mem.Purge()
	if c.dir == "" {
		return nil
	}
	files, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return err
	}
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > c.ttl {
			_ = os.Remove(file)
		}
	}
	return nil
}
