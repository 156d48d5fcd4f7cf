package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvending/vending/internal/protocol"
)

func buildCounter(calls *int) BuildFunc {
	return func(context.Context) (*protocol.Client, error) {
		*calls++
		return protocol.NewClient(protocol.Session{}, nil, nil, protocol.Endpoints{}, nil), nil
	}
}

func TestSessionCacheReusesLiveEntry(t *testing.T) {
	clock := newFakeClock()
	cache := NewSessionCache(time.Minute, clock)

	calls := 0
	first, err := cache.GetOrCreate(context.Background(), "com.example.game", "acc-1", buildCounter(&calls))
	require.NoError(t, err)
	second, err := cache.GetOrCreate(context.Background(), "com.example.game", "acc-1", buildCounter(&calls))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestSessionCacheRebuildsExpiredEntry(t *testing.T) {
	clock := newFakeClock()
	cache := NewSessionCache(time.Minute, clock)

	calls := 0
	first, err := cache.GetOrCreate(context.Background(), "com.example.game", "acc-1", buildCounter(&calls))
	require.NoError(t, err)

	clock.Advance(time.Minute + time.Second)

	second, err := cache.GetOrCreate(context.Background(), "com.example.game", "acc-1", buildCounter(&calls))
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, calls)
}

func TestSessionCacheKeysByPackageAndAccount(t *testing.T) {
	clock := newFakeClock()
	cache := NewSessionCache(time.Minute, clock)

	calls := 0
	_, err := cache.GetOrCreate(context.Background(), "com.example.game", "acc-1", buildCounter(&calls))
	require.NoError(t, err)
	_, err = cache.GetOrCreate(context.Background(), "com.example.game", "acc-2", buildCounter(&calls))
	require.NoError(t, err)
	_, err = cache.GetOrCreate(context.Background(), "com.example.other", "acc-1", buildCounter(&calls))
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
}

func TestSessionCacheBuildErrorNotCached(t *testing.T) {
	clock := newFakeClock()
	cache := NewSessionCache(time.Minute, clock)

	buildErr := errors.New("credentials unavailable")
	_, err := cache.GetOrCreate(context.Background(), "com.example.game", "acc-1", func(context.Context) (*protocol.Client, error) {
		return nil, buildErr
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, buildErr)

	calls := 0
	_, err = cache.GetOrCreate(context.Background(), "com.example.game", "acc-1", buildCounter(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestSessionCacheInvalidate(t *testing.T) {
	clock := newFakeClock()
	cache := NewSessionCache(time.Minute, clock)

	calls := 0
	_, err := cache.GetOrCreate(context.Background(), "com.example.game", "acc-1", buildCounter(&calls))
	require.NoError(t, err)

	cache.Invalidate("com.example.game", "acc-1")

	_, err = cache.GetOrCreate(context.Background(), "com.example.game", "acc-1", buildCounter(&calls))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
