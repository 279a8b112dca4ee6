// Package memory implements the domain cache interfaces in process memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// DefaultTTL is the freshness window applied uniformly to every slot.
const DefaultTTL = 60 * time.Second

// SlotCache implements domain.SlotCache with a map of slots. The number of
// keys is fixed by the configured sources, so nothing is ever evicted; stale
// slots are simply reported as not fresh.
type SlotCache struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	slots map[string]domain.Slot
}

// Option configures a SlotCache.
type Option func(*SlotCache)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *SlotCache) { c.now = now }
}

// NewSlotCache creates an empty SlotCache. A non-positive ttl falls back to
// DefaultTTL.
func NewSlotCache(ttl time.Duration, opts ...Option) *SlotCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &SlotCache{
		ttl:   ttl,
		now:   time.Now,
		slots: make(map[string]domain.Slot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsFresh reports whether key holds a payload younger than the TTL.
func (c *SlotCache) IsFresh(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	slot, ok := c.slots[key]
	c.mu.RUnlock()
	if !ok || slot.Payload == nil {
		return false, nil
	}
	return c.now().Sub(slot.FetchedAt) < c.ttl, nil
}

// Get returns the last stored slot regardless of freshness.
func (c *SlotCache) Get(_ context.Context, key string) (domain.Slot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	slot, ok := c.slots[key]
	if !ok {
		return domain.Slot{}, domain.ErrNotFound
	}
	return slot, nil
}

// Put replaces the slot for key with payload stamped at the current time.
func (c *SlotCache) Put(_ context.Context, key string, payload []byte) error {
	buf := make([]byte, len(payload))
	copy(buf, payload)

	c.mu.Lock()
	c.slots[key] = domain.Slot{Payload: buf, FetchedAt: c.now()}
	c.mu.Unlock()
	return nil
}

// Compile-time interface check.
var _ domain.SlotCache = (*SlotCache)(nil)
