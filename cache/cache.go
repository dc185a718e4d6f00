// Package cache holds completed lookup records keyed by normalized
// domain, bounded by entry count and per-entry TTL.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/dap-ware/whodis/models"
)

// Cache is a TTL + capacity bounded record store. A nil *Cache is a
// valid disabled cache: Get always misses and Put is a no-op, which is
// how clients built without caching run. The cache never fails a
// lookup; anything going wrong internally is logged and treated as a
// miss.
type Cache struct {
	lru *expirable.LRU[string, models.Record]
	log *zap.Logger
}

// New builds a cache with at most maxEntries records expiring ttl after
// insertion.
func New(maxEntries int, ttl time.Duration, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Cache{
		lru: expirable.NewLRU[string, models.Record](maxEntries, nil, ttl),
		log: log,
	}
}

// Get returns a copy of the cached record with Cached set, or ok=false
// on miss or expiry.
func (c *Cache) Get(key string) (models.Record, bool) {
	if c == nil {
		return models.Record{}, false
	}
	rec, ok := c.lru.Get(key)
	if !ok {
		c.log.Debug("cache miss", zap.String("domain", key))
		return models.Record{}, false
	}
	out := rec.Clone()
	out.Cached = true
	c.log.Debug("cache hit", zap.String("domain", key))
	return out, true
}

// Put stores a copy of the record under key with Cached cleared.
func (c *Cache) Put(key string, rec models.Record) {
	if c == nil {
		return
	}
	stored := rec.Clone()
	stored.Cached = false
	c.lru.Add(key, stored)
}

// Invalidate drops the entry for key, if present.
func (c *Cache) Invalidate(key string) {
	if c == nil {
		return
	}
	c.lru.Remove(key)
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
