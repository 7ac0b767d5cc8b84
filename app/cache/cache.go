package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type Entry struct {
	Key       string
	Payload   []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether now is past the entry's expiry.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Store persists cache entries. Get returns (nil, nil) on a miss.
type Store interface {
	Get(key string) (*Entry, error)
	Put(entry Entry) error
	DeleteExpired(now time.Time) (int, error)
}

// Cache serves computed values until they expire. The lookup, compute and
// store sequence runs under one lock, so compute must not call back into the
// same Cache.
type Cache struct {
	store Store
	mu    sync.Mutex
	now   func() time.Time
}

func New(store Store) *Cache {
	return &Cache{
		store: store,
		now:   time.Now,
	}
}

func NewMemory() *Cache {
	return New(NewMemoryStore())
}

// Key joins parts into a cache key, e.g. Key("official", "RE", url).
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

// GetOrCompute returns the cached value for key, or runs compute and caches
// its result for ttl. A ttl of zero or less always recomputes. Errors from
// compute are returned unchanged and nothing is stored.
func GetOrCompute[T any](c *Cache, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if value, ok := c.lookup(key, now); ok {
		var out T
		err := json.Unmarshal(value, &out)
		if err == nil {
			slog.Debug("Cache hit", "key", key)
			return out, nil
		}
		slog.Warn("Failed to decode cached value", "key", key, "error", err)
	}

	return fill(c, key, ttl, now, compute)
}

// Refresh runs compute and caches its result for ttl whether or not a fresh
// entry exists. On error the existing entry is kept.
func Refresh[T any](c *Cache, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return fill(c, key, ttl, c.now(), compute)
}

// fill must be called with c.mu held.
func fill[T any](c *Cache, key string, ttl time.Duration, now time.Time, fn func() (T, error)) (T, error) {
	value, err := fn()
	if err != nil {
		return value, err
	}

	if ttl <= 0 {
		return value, nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		slog.Warn("Failed to encode value for cache", "key", key, "error", err)
		return value, nil
	}

	entry := Entry{
		Key:       key,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := c.store.Put(entry); err != nil {
		slog.Warn("Failed to store cache entry", "key", key, "error", err)
	}

	return value, nil
}

func (c *Cache) lookup(key string, now time.Time) ([]byte, bool) {
	entry, err := c.store.Get(key)
	if err != nil {
		slog.Warn("Failed to read cache entry", "key", key, "error", err)
		return nil, false
	}
	if entry == nil || entry.Expired(now) {
		return nil, false
	}
	return entry.Payload, true
}

// Purge drops expired entries and returns how many were removed.
func (c *Cache) Purge() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed, err := c.store.DeleteExpired(c.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return removed, nil
}
