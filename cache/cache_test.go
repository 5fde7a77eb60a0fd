// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache_test

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MixasV/fhevm-sdk-go/cache"
	"github.com/MixasV/fhevm-sdk-go/fixtures"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func TestSetGet(t *testing.T) {
	c := cache.New("cache-test", cache.Config{})

	c.Set("key-one", "data-one")
	c.Set("key-two", "data-two")
	c.Set("key-one", "data-one(NEW)") // duplicate

	value, ok := c.Get("key-one")
	assert.True(t, ok)
	assert.Equal(t, "data-one(NEW)", value)

	value, ok = c.Get("key-two")
	assert.True(t, ok)
	assert.Equal(t, "data-two", value)

	_, ok = c.Get("key-missing")
	assert.False(t, ok)

	assert.Equal(t, 2, c.Stats().Size)
}

func TestTTLRoundTrip(t *testing.T) {
	c := cache.New("cache-ttl", cache.Config{})

	c.SetWithTTL("k", "v", 100*time.Millisecond)

	value, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", value)

	missesBefore := c.Stats().Misses

	time.Sleep(150 * time.Millisecond)

	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, missesBefore+1, c.Stats().Misses)

	// lazy expiry removed the entry
	assert.Equal(t, 0, c.Stats().Size)
}

func TestDefaultTTL(t *testing.T) {
	c := cache.New("cache-default-ttl", cache.Config{
		DefaultTTL: 50 * time.Millisecond,
	})

	c.Set("short", "lived")
	c.SetWithTTL("long", "lived", 10*time.Second)

	time.Sleep(80 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
	_, ok = c.Get("long")
	assert.True(t, ok)
}

func TestCapacityEviction(t *testing.T) {
	c := cache.New("cache-evict", cache.Config{MaxSize: 3})

	for i := 1; i <= 4; i += 1 {
		c.Set(fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i))
		time.Sleep(2 * time.Millisecond) // distinct insertion times
	}

	// oldest-inserted entry was evicted
	_, ok := c.Get("k1")
	assert.False(t, ok)

	value, ok := c.Get("k4")
	assert.True(t, ok)
	assert.Equal(t, "v4", value)

	stats := c.Stats()
	assert.Equal(t, 3, stats.Size)
	assert.Equal(t, 3, stats.MaxSize)
}

func TestOverwriteRefreshesInsertion(t *testing.T) {
	c := cache.New("cache-overwrite", cache.Config{MaxSize: 2})

	c.Set("a", 1)
	time.Sleep(2 * time.Millisecond)
	c.Set("b", 2)
	time.Sleep(2 * time.Millisecond)
	c.Set("a", 3) // now newer than b
	time.Sleep(2 * time.Millisecond)
	c.Set("c", 4) // evicts b, not a

	_, ok := c.Get("b")
	assert.False(t, ok)
	value, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 3, value)
}

func TestPatternInvalidation(t *testing.T) {
	c := cache.New("cache-pattern", cache.Config{})

	c.Set("user:1:balance", "100")
	c.Set("user:2:balance", "200")
	c.Set("contract:data", "deadbeef")

	n, err := c.Invalidate("user:")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok := c.Get("user:1:balance")
	assert.False(t, ok)
	_, ok = c.Get("user:2:balance")
	assert.False(t, ok)

	value, ok := c.Get("contract:data")
	assert.True(t, ok)
	assert.Equal(t, "deadbeef", value)
}

func TestInvalidateAll(t *testing.T) {
	c := cache.New("cache-invalidate-all", cache.Config{})

	c.Set("one", 1)
	c.Set("two", 2)
	c.Set("three", 3)
	_, _ = c.Get("one")
	_, _ = c.Get("missing")

	n, err := c.Invalidate("")
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)

	// statistics window restarted
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)
	assert.Equal(t, 0.0, stats.HitRate)
}

func TestInvalidateBadPattern(t *testing.T) {
	c := cache.New("cache-bad-pattern", cache.Config{})
	c.Set("key", "value")

	n, err := c.Invalidate("([")
	assert.Error(t, err)
	assert.Equal(t, 0, n)

	// nothing was removed
	assert.Equal(t, 1, c.Stats().Size)
}

func TestHasCountsStatistics(t *testing.T) {
	c := cache.New("cache-has", cache.Config{})
	c.Set("present", true)

	assert.True(t, c.Has("present"))
	assert.False(t, c.Has("absent"))

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate)
}

func TestDelete(t *testing.T) {
	c := cache.New("cache-delete", cache.Config{})
	c.Set("key", "value")

	assert.True(t, c.Delete("key"))
	assert.False(t, c.Delete("key"))
	assert.False(t, c.Delete("never-existed"))
}

func TestCleanup(t *testing.T) {
	c := cache.New("cache-cleanup", cache.Config{})

	c.SetWithTTL("e1", 1, 20*time.Millisecond)
	c.SetWithTTL("e2", 2, 20*time.Millisecond)
	c.SetWithTTL("keep", 3, 10*time.Second)
	c.Set("forever", 4)

	time.Sleep(50 * time.Millisecond)

	// expired entries still count toward size until swept
	assert.Equal(t, 4, c.Stats().Size)

	n := c.Cleanup()
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, c.Stats().Size)

	assert.True(t, c.Has("keep"))
	assert.True(t, c.Has("forever"))
}

func TestBackgroundSweeper(t *testing.T) {
	c := cache.New("cache-sweeper", cache.Config{
		CleanupInterval: 25 * time.Millisecond,
	})
	defer c.Stop()

	c.SetWithTTL("gone", "soon", 20*time.Millisecond)
	c.Set("stays", "here")

	time.Sleep(100 * time.Millisecond)

	// sweeper removed the expired entry without any Get
	assert.Equal(t, 1, c.Stats().Size)
}

func TestStatsZero(t *testing.T) {
	c := cache.New("cache-zero", cache.Config{})

	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, cache.DefaultMaxSize, stats.MaxSize)
	assert.Equal(t, 0.0, stats.HitRate)
}
