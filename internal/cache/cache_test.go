package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheExpiresWithClock(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(15*time.Minute, func() time.Time { return now })

	c.Set("k", "v")
	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)

	now = now.Add(14 * time.Minute)
	_, ok = c.Get("k")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	require.False(t, ok)
	require.Equal(t, 0, c.Len(), "expired entry should be evicted on read")
}

func TestCacheMiss(t *testing.T) {
	c := New(time.Minute, nil)
	_, ok := c.Get("missing")
	require.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := New(time.Minute, nil)
	c.Set("a", 1)
	c.Set("b", 2)
	require.Equal(t, 2, c.Len())
	c.Clear()
	require.Equal(t, 0, c.Len())
}

func TestCacheOverwrite(t *testing.T) {
	c := New(time.Minute, nil)
	c.Set("k", 1)
	c.Set("k", 2)
	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, 2, v)
}
