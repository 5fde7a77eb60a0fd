// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"regexp"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/MixasV/fhevm-sdk-go/background"
	"github.com/MixasV/fhevm-sdk-go/counter"
)

// DefaultMaxSize - capacity used when Config.MaxSize is zero
const DefaultMaxSize = 1000

type item struct {
	object    interface{}
	cachedAt  time.Time
	expiresAt time.Time // zero time means never expires
}

// Config - cache construction options
//
// DefaultTTL zero means entries never expire unless SetWithTTL is
// used; CleanupInterval zero disables the background expiry sweep
type Config struct {
	MaxSize         int
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}

// Cache - bounded store for expensive relayer artifacts
//
// keys map to encrypted values or decryption results; eviction on
// overflow removes the oldest-inserted entry, not the least recently
// read one
type Cache struct {
	sync.RWMutex
	log        *logger.L
	items      map[string]item
	maxSize    int
	defaultTTL time.Duration
	hits       counter.Counter
	misses     counter.Counter
	bg         *background.T
}

// Stats - snapshot of cache effectiveness
type Stats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

// New - create a cache
//
// when CleanupInterval is set a background sweeper removes expired
// entries periodically; call Stop to shut it down
func New(name string, cfg Config) *Cache {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}

	log := logger.New(name)
	log.Info("initialising…")

	c := &Cache{
		log:        log,
		items:      make(map[string]item),
		maxSize:    cfg.MaxSize,
		defaultTTL: cfg.DefaultTTL,
	}

	if cfg.CleanupInterval > 0 {
		c.bg = background.Start(background.Processes{
			&sweeper{
				cache:    c,
				interval: cfg.CleanupInterval,
			},
		}, nil)
	}

	return c
}

// Stop - stop the background sweeper, if any
func (c *Cache) Stop() {
	c.bg.Stop()
}

// Set - store a value under key using the default TTL
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL - store a value with an explicit TTL
//
// ttl zero or negative means the entry never expires; overwriting
// refreshes the insertion time, so the entry becomes the newest for
// eviction purposes
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.Lock()
	defer c.Unlock()

	if _, ok := c.items[key]; !ok && len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	val := item{
		object:   value,
		cachedAt: now,
	}
	if ttl > 0 {
		val.expiresAt = now.Add(ttl)
	}
	c.items[key] = val
}

// Get - fetch a value
//
// expired entries are removed on read; every call counts as a hit or
// a miss
func (c *Cache) Get(key string) (interface{}, bool) {
	c.Lock()
	defer c.Unlock()

	val, ok := c.items[key]
	if !ok {
		c.misses.Increment()
		return nil, false
	}
	if expired(val.expiresAt) {
		delete(c.items, key)
		c.misses.Increment()
		return nil, false
	}
	c.hits.Increment()
	return val.object, true
}

// Has - check for a live entry without exposing the value
//
// delegates to Get, so it affects the hit/miss statistics
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete - remove one entry, reporting whether it existed
func (c *Cache) Delete(key string) bool {
	c.Lock()
	defer c.Unlock()

	_, ok := c.items[key]
	if ok {
		delete(c.items, key)
	}
	return ok
}

// Invalidate - bulk removal
//
// an empty pattern drops every entry, returns the prior size and
// restarts the hit/miss statistics window; otherwise the pattern is
// compiled as a regular expression and all matching keys are removed
func (c *Cache) Invalidate(pattern string) (int, error) {
	if "" == pattern {
		c.Lock()
		defer c.Unlock()

		n := len(c.items)
		c.items = make(map[string]item)
		c.hits.Reset()
		c.misses.Reset()
		c.log.Debugf("invalidated all %d entries", n)
		return n, nil
	}

	re, err := regexp.Compile(pattern)
	if nil != err {
		return 0, err
	}

	c.Lock()
	defer c.Unlock()

	n := 0
	for key := range c.items {
		if re.MatchString(key) {
			delete(c.items, key)
			n += 1
		}
	}
	c.log.Debugf("invalidated %d entries matching %q", n, pattern)
	return n, nil
}

// Cleanup - proactively remove all currently expired entries
//
// supplements the lazy expiry done by Get; returns the number removed
func (c *Cache) Cleanup() int {
	c.Lock()
	defer c.Unlock()

	n := 0
	for key, val := range c.items {
		if expired(val.expiresAt) {
			delete(c.items, key)
			n += 1
		}
	}
	if n > 0 {
		c.log.Debugf("cleanup removed %d expired entries", n)
	}
	return n
}

// Stats - current size and cumulative hit/miss counts
func (c *Cache) Stats() Stats {
	c.RLock()
	size := len(c.items)
	c.RUnlock()

	hits := c.hits.Uint64()
	misses := c.misses.Uint64()

	rate := 0.0
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}

	return Stats{
		Size:    size,
		MaxSize: c.maxSize,
		Hits:    hits,
		Misses:  misses,
		HitRate: rate,
	}
}

// caller must hold the lock
func (c *Cache) evictOldest() {
	oldestKey := ""
	var oldestAt time.Time
	first := true

	for key, val := range c.items {
		if first || val.cachedAt.Before(oldestAt) {
			first = false
			oldestKey = key
			oldestAt = val.cachedAt
		}
	}
	if !first {
		delete(c.items, oldestKey)
		c.log.Debugf("evicted oldest entry: %q", oldestKey)
	}
}

func expired(exp time.Time) bool {
	return !exp.IsZero() && time.Since(exp) > 0
}
