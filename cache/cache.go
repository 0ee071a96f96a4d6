// Package cache provides file-backed caching for explain responses.
// Entries are keyed by a hash of the function's source and call-graph
// context, so edits to the analyzed code invalidate stale answers.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one cached response, stored as a JSON file named after its
// key.
type Entry struct {
	Key         string      `json:"key"`
	ContentHash string      `json:"content_hash"`
	Response    string      `json:"response"`
	Model       string      `json:"model"`
	CreatedAt   time.Time   `json:"created_at"`
	Usage       *TokenUsage `json:"usage,omitempty"`
}

// TokenUsage records what a cached response originally cost.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Stats counts cache activity since the Cache was created.
type Stats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Writes     int64 `json:"writes"`
	Evictions  int64 `json:"evictions"`
	TotalBytes int64 `json:"total_bytes"`
}

// Cache stores LLM responses as JSON files under one directory. A
// disabled Cache accepts every call and never hits.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool

	mu    sync.Mutex
	stats Stats
}

// Options configures a Cache.
type Options struct {
	Dir     string        // entry directory
	TTL     time.Duration // 0 means entries never expire
	Enabled bool
}

// DefaultOptions places the cache under .trackast with no expiry.
func DefaultOptions() Options {
	return Options{
		Dir:     filepath.Join(".trackast", "cache"),
		TTL:     0,
		Enabled: true,
	}
}

// New creates the cache directory and returns a Cache over it.
func New(opts Options) (*Cache, error) {
	if !opts.Enabled {
		return &Cache{}, nil
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{dir: opts.Dir, ttl: opts.TTL, enabled: true}, nil
}

// MakeKey derives a deterministic key from content hash, operation,
// and model, so the same source cached for different uses never
// collides.
func MakeKey(contentHash, operation, model string) string {
	sum := sha256.Sum256([]byte(contentHash + ":" + operation + ":" + model))
	return hex.EncodeToString(sum[:16])
}

// ContentHash hashes source content for cache keying.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

var errExpired = errors.New("entry expired")

// Get returns the entry for a key. Expired entries are removed and
// count as misses.
func (c *Cache) Get(key string) (*Entry, bool) {
	if !c.enabled {
		return nil, false
	}

	path := c.keyPath(key)
	entry, err := readEntry(path)
	if err == nil && c.expired(entry) {
		os.Remove(path)
		err = errExpired
	}

	c.mu.Lock()
	if err != nil {
		c.stats.Misses++
	} else {
		c.stats.Hits++
	}
	c.mu.Unlock()

	if err != nil {
		return nil, false
	}
	return entry, true
}

// GetByContentHash looks up the entry keyed by content hash,
// operation, and model.
func (c *Cache) GetByContentHash(contentHash, operation, model string) (*Entry, bool) {
	return c.Get(MakeKey(contentHash, operation, model))
}

// Set writes an entry to disk, stamping CreatedAt when unset.
func (c *Cache) Set(entry *Entry) error {
	if !c.enabled {
		return nil
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}
	if err := os.WriteFile(c.keyPath(entry.Key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	c.mu.Lock()
	c.stats.Writes++
	c.stats.TotalBytes += int64(len(data))
	c.mu.Unlock()
	return nil
}

// SetResponse caches one response under its derived key.
func (c *Cache) SetResponse(contentHash, operation, model, response string, usage *TokenUsage) error {
	return c.Set(&Entry{
		Key:         MakeKey(contentHash, operation, model),
		ContentHash: contentHash,
		Response:    response,
		Model:       model,
		Usage:       usage,
	})
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	evicted := 0
	for _, path := range c.entryFiles() {
		if os.Remove(path) == nil {
			evicted++
		}
	}

	c.mu.Lock()
	c.stats.Evictions += int64(evicted)
	c.stats.TotalBytes = 0
	c.mu.Unlock()
	return nil
}

// Cleanup removes expired entries. A zero TTL makes it a no-op.
func (c *Cache) Cleanup() error {
	if !c.enabled || c.ttl == 0 {
		return nil
	}
	evicted := 0
	for _, path := range c.entryFiles() {
		entry, err := readEntry(path)
		if err != nil {
			continue
		}
		if c.expired(entry) && os.Remove(path) == nil {
			evicted++
		}
	}

	c.mu.Lock()
	c.stats.Evictions += int64(evicted)
	c.mu.Unlock()
	return nil
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// HitRate returns hits over total lookups, or 0 before any lookup.
func (c *Cache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.stats.Hits + c.stats.Misses
	if total == 0 {
		return 0
	}
	return float64(c.stats.Hits) / float64(total)
}

// Size counts the entries currently on disk.
func (c *Cache) Size() int {
	return len(c.entryFiles())
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}

func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *Cache) expired(e *Entry) bool {
	return c.ttl > 0 && time.Since(e.CreatedAt) > c.ttl
}

// entryFiles lists the paths of every entry file in the cache
// directory.
func (c *Cache) entryFiles() []string {
	if !c.enabled {
		return nil
	}
	dirents, err := os.ReadDir(c.dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, d := range dirents {
		if !d.IsDir() && filepath.Ext(d.Name()) == ".json" {
			files = append(files, filepath.Join(c.dir, d.Name()))
		}
	}
	return files
}

func readEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
