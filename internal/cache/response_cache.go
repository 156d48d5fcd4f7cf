// Package cache holds the two shared caching layers: the content-addressed
// response cache for idempotent reads and the protocol session cache.
package cache

import (
	"container/list"
	"crypto/sha256"
	"sync"
	"time"

	"github.com/openvending/vending/internal/ports"
)

// ResponseCache maps the digest of exact serialized request bytes to raw
// response bytes. Fixed-capacity LRU; entries additionally carry their own
// TTL, checked on read independent of eviction. Safe for concurrent use.
type ResponseCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	clock    ports.Clock

	order   *list.List
	entries map[[sha256.Size]byte]*list.Element
}

type responseEntry struct {
	key       [sha256.Size]byte
	response  []byte
	expiresAt time.Time
}

func NewResponseCache(capacity int, ttl time.Duration, clock ports.Clock) *ResponseCache {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &ResponseCache{
		capacity: capacity,
		ttl:      ttl,
		clock:    clock,
		order:    list.New(),
		entries:  make(map[[sha256.Size]byte]*list.Element, capacity),
	}
}

func (c *ResponseCache) Get(request []byte) ([]byte, bool) {
	key := sha256.Sum256(request)

	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := element.Value.(*responseEntry)
	if c.clock.Now().After(entry.expiresAt) {
		c.order.Remove(element)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(element)
	return entry.response, true
}

func (c *ResponseCache) Put(request, response []byte) {
	key := sha256.Sum256(request)
	expiresAt := c.clock.Now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[key]; ok {
		entry := element.Value.(*responseEntry)
		entry.response = response
		entry.expiresAt = expiresAt
		c.order.MoveToFront(element)
		return
	}

	c.entries[key] = c.order.PushFront(&responseEntry{
		key:       key,
		response:  response,
		expiresAt: expiresAt,
	})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*responseEntry).key)
	}
}

func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
