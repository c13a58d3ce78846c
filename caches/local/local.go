// Package local provides an in-memory cache implementation.
package local

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/embedmux/embedmux/pkg/cache"
)

// Cache implements cache.Cache using an in-process store with expiration.
type Cache struct {
	store      *gocache.Cache
	defaultTTL time.Duration

	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
}

// Config holds configuration for the local cache.
type Config struct {
	DefaultTTL      time.Duration `yaml:"default_ttl"`      // Default entry TTL (default: 1 hour)
	CleanupInterval time.Duration `yaml:"cleanup_interval"` // Expired entry sweep interval
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:      time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
}

// New creates a new in-memory cache.
func New(cfg Config) *Cache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}
	return &Cache{
		store:      gocache.New(cfg.DefaultTTL, cfg.CleanupInterval),
		defaultTTL: cfg.DefaultTTL,
	}
}

// Get retrieves a value. Misses return nil, nil.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	v, found := c.store.Get(key)
	if !found {
		c.misses.Add(1)
		return nil, nil
	}
	b, ok := v.([]byte)
	if !ok {
		c.misses.Add(1)
		return nil, nil
	}
	c.hits.Add(1)
	return b, nil
}

// Set stores a value with the given TTL.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.store.Set(key, value, ttl)
	c.sets.Add(1)
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	c.deletes.Add(1)
	return nil
}

// Ping always succeeds for the in-process store.
func (c *Cache) Ping(_ context.Context) error {
	return nil
}

// Close flushes the store.
func (c *Cache) Close() error {
	c.store.Flush()
	return nil
}

// Stats returns cache statistics.
func (c *Cache) Stats() cache.Stats {
	return cache.Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Sets:    c.sets.Load(),
		Deletes: c.deletes.Load(),
	}
}
