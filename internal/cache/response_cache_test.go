package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestResponseCacheHitAndMiss(t *testing.T) {
	clock := newFakeClock()
	cache := NewResponseCache(4, time.Hour, clock)

	_, ok := cache.Get([]byte("req-1"))
	assert.False(t, ok)

	cache.Put([]byte("req-1"), []byte("resp-1"))

	got, ok := cache.Get([]byte("req-1"))
	require.True(t, ok)
	assert.Equal(t, []byte("resp-1"), got)
}

func TestResponseCacheExpiresOnRead(t *testing.T) {
	clock := newFakeClock()
	cache := NewResponseCache(4, time.Hour, clock)

	cache.Put([]byte("req-1"), []byte("resp-1"))
	clock.Advance(time.Hour + time.Second)

	_, ok := cache.Get([]byte("req-1"))
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestResponseCacheEvictsLeastRecentlyUsed(t *testing.T) {
	clock := newFakeClock()
	cache := NewResponseCache(3, time.Hour, clock)

	for i := 1; i <= 3; i++ {
		cache.Put([]byte(fmt.Sprintf("req-%d", i)), []byte(fmt.Sprintf("resp-%d", i)))
	}

	// Touch req-1 so req-2 becomes the eviction victim.
	_, ok := cache.Get([]byte("req-1"))
	require.True(t, ok)

	cache.Put([]byte("req-4"), []byte("resp-4"))

	_, ok = cache.Get([]byte("req-2"))
	assert.False(t, ok)
	_, ok = cache.Get([]byte("req-1"))
	assert.True(t, ok)
	_, ok = cache.Get([]byte("req-3"))
	assert.True(t, ok)
	_, ok = cache.Get([]byte("req-4"))
	assert.True(t, ok)
	assert.Equal(t, 3, cache.Len())
}

func TestResponseCachePutUpdatesInPlace(t *testing.T) {
	clock := newFakeClock()
	cache := NewResponseCache(2, time.Hour, clock)

	cache.Put([]byte("req-1"), []byte("resp-old"))
	cache.Put([]byte("req-1"), []byte("resp-new"))

	got, ok := cache.Get([]byte("req-1"))
	require.True(t, ok)
	assert.Equal(t, []byte("resp-new"), got)
	assert.Equal(t, 1, cache.Len())
}
