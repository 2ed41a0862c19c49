// Package cache is the canonical key/value cache sitting in front of the price
// registry. Entries expire after a TTL and are purged lazily on read.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is used when Options.DefaultTTL is not set
const DefaultTTL = time.Hour

// Store is a cache backend. Get must never return an expired entry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context) error
	ClearByPrefix(ctx context.Context, prefix string) error
}

// Options holds the static cache settings
type Options struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// Cache applies the enabled switch and default TTL on top of a Store. Backend
// failures are logged and reported as misses so a query is never failed by
// its cache.
type Cache struct {
	store      Store
	enabled    bool
	defaultTTL time.Duration
	logger     *zap.Logger
}

// New creates a Cache over store
func New(store Store, opts Options, logger *zap.Logger) *Cache {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:      store,
		enabled:    opts.Enabled,
		defaultTTL: ttl,
		logger:     logger,
	}
}

// Enabled reports whether the cache is switched on
func (c *Cache) Enabled() bool {
	return c.enabled
}

// DefaultTTL returns the TTL applied by Set when none is given
func (c *Cache) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Get returns the value stored under key if it is present and unexpired
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	value, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		c.logger.Debug("Cache miss", zap.String("key", key))
		return nil, false
	}

	c.logger.Debug("Cache hit", zap.String("key", key))
	return value, true
}

// Set stores value under key for ttl, or for the default TTL when ttl <= 0
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !c.enabled {
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if err := c.store.Set(ctx, key, value, ttl); err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	c.logger.Debug("Cache entry stored", zap.String("key", key), zap.Duration("ttl", ttl))
}

// GetJSON decodes the value stored under key into v
func (c *Cache) GetJSON(ctx context.Context, key string, v any) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON encodes v and stores it under key
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.enabled {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	c.Set(ctx, key, data, ttl)
}

// Clear drops every entry
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.logger.Info("Cache cleared")
	return nil
}

// ClearByPrefix drops every entry whose key starts with prefix
func (c *Cache) ClearByPrefix(ctx context.Context, prefix string) error {
	if err := c.store.ClearByPrefix(ctx, prefix); err != nil {
		return err
	}
	c.logger.Info("Cache cleared for prefix", zap.String("prefix", prefix))
	return nil
}
