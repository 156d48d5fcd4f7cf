package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/openvending/vending/internal/ports"
	"github.com/openvending/vending/internal/protocol"
)

// SessionCache maps (package, account) to a live protocol client. Expired
// entries are discarded and rebuilt, never refreshed in place; concurrent
// builds for the same key are collapsed into one.
type SessionCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	clock ports.Clock
	group singleflight.Group

	entries map[string]*sessionEntry
}

type sessionEntry struct {
	client    *protocol.Client
	expiresAt time.Time
}

func NewSessionCache(ttl time.Duration, clock ports.Clock) *SessionCache {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &SessionCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]*sessionEntry),
	}
}

type BuildFunc func(ctx context.Context) (*protocol.Client, error)

func (c *SessionCache) GetOrCreate(ctx context.Context, pkgName, account string, build BuildFunc) (*protocol.Client, error) {
	key := pkgName + ":" + account

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.clock.Now().Before(entry.expiresAt) {
		return entry.client, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		entry, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && c.clock.Now().Before(entry.expiresAt) {
			return entry.client, nil
		}

		client, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("build protocol session: %w", err)
		}

		c.mu.Lock()
		c.entries[key] = &sessionEntry{
			client:    client,
			expiresAt: c.clock.Now().Add(c.ttl),
		}
		c.mu.Unlock()
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*protocol.Client), nil
}

// Invalidate drops the entry so the next GetOrCreate rebuilds it.
func (c *SessionCache) Invalidate(pkgName, account string) {
	c.mu.Lock()
	delete(c.entries, pkgName+":"+account)
	c.mu.Unlock()
}
