// ABOUTME: In-memory render cache keyed by sha256 of the markdown content.
// ABOUTME: Supports TTL-based expiry and concurrent access; streaming re-renders hit it hard.
package render

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// cacheEntry holds one cached render result with its creation timestamp.
type cacheEntry struct {
	html      string
	createdAt time.Time
}

// Cache wraps a Renderer with an in-memory cache. Keys derive from the
// sha256 hash of the markdown. Entries expire after the configured TTL.
type Cache struct {
	renderer *Renderer
	ttl      time.Duration
	mu       sync.RWMutex
	entries  map[string]*cacheEntry
}

// NewCache creates a Cache over the given renderer. Entries expire after ttl.
func NewCache(renderer *Renderer, ttl time.Duration) *Cache {
	return &Cache{
		renderer: renderer,
		ttl:      ttl,
		entries:  make(map[string]*cacheEntry),
	}
}

// ToHTML renders markdown, returning a cached result when fresh.
func (c *Cache) ToHTML(markdown string) string {
	key := cacheKey(markdown)

	c.mu.RLock()
	if entry, ok := c.entries[key]; ok && time.Since(entry.createdAt) < c.ttl {
		out := entry.html
		c.mu.RUnlock()
		return out
	}
	c.mu.RUnlock()

	out := c.renderer.ToHTML(markdown)

	c.mu.Lock()
	c.entries[key] = &cacheEntry{html: out, createdAt: time.Now()}
	c.mu.Unlock()
	return out
}

// Len returns the number of entries currently cached, including expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops all cached entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func cacheKey(markdown string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(markdown)))
}
