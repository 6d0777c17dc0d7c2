// SPDX-License-Identifier: MIT

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMemoryCache_GetSet(t *testing.T) {
	c := NewMemoryCache(0)
	defer func() { _ = c.Close() }()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("key", []byte("rendered meme"), time.Minute)

	got, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, []byte("rendered meme"), got)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(0)
	defer func() { _ = c.Close() }()

	c.Set("key", []byte("v"), 10*time.Millisecond)

	_, ok := c.Get("key")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	_, ok = c.Get("key")
	assert.False(t, ok, "expired entry must not be returned")
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(0)
	defer func() { _ = c.Close() }()

	c.Set("key", []byte("v"), time.Minute)
	c.Delete("key")

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestMemoryCache_JanitorEvicts(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := NewMemoryCache(20 * time.Millisecond)
	defer func() { _ = c.Close() }()

	c.Set("short", []byte("v"), 5*time.Millisecond)
	c.Set("long", []byte("v"), time.Minute)

	assert.Eventually(t, func() bool {
		return c.Stats().CurrentSize == 1
	}, time.Second, 10*time.Millisecond, "janitor never evicted the expired entry")
}

func TestMemoryCache_CloseStopsJanitor(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := NewMemoryCache(10 * time.Millisecond)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "double close must be safe")
}
