package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SlotCache implements domain.SlotCache with one Redis hash per slot.
//
// Key schema:
//
//	{prefix}:slot:{key} - hash with fields "payload" (raw body) and
//	                      "fetched_at" (Unix nanoseconds)
//
// Both fields are written by a single HSET so readers never observe a payload
// paired with another write's timestamp. Freshness is computed locally against
// the configured TTL; keys do not expire on the server.
type SlotCache struct {
	c   *Client
	ttl time.Duration
	now func() time.Time
}

// NewSlotCache creates a SlotCache backed by the given Client.
func NewSlotCache(c *Client, ttl time.Duration) *SlotCache {
	return &SlotCache{c: c, ttl: ttl, now: time.Now}
}

func (sc *SlotCache) slotKey(key string) string {
	return sc.c.key("slot", key)
}

// IsFresh reports whether key holds a payload younger than the TTL.
func (sc *SlotCache) IsFresh(ctx context.Context, key string) (bool, error) {
	raw, err := sc.c.rdb.HGet(ctx, sc.slotKey(key), "fetched_at").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis: slot fresh %s: %w", key, err)
	}
	fetchedAt, err := parseNanos(raw)
	if err != nil {
		return false, fmt.Errorf("redis: slot fresh %s: %w", key, err)
	}
	return sc.now().Sub(fetchedAt) < sc.ttl, nil
}

// Get returns the stored slot regardless of freshness. It returns
// domain.ErrNotFound when nothing has been stored under key.
func (sc *SlotCache) Get(ctx context.Context, key string) (domain.Slot, error) {
	vals, err := sc.c.rdb.HGetAll(ctx, sc.slotKey(key)).Result()
	if err != nil {
		return domain.Slot{}, fmt.Errorf("redis: slot get %s: %w", key, err)
	}
	payload, ok := vals["payload"]
	if !ok {
		return domain.Slot{}, domain.ErrNotFound
	}
	fetchedAt, err := parseNanos(vals["fetched_at"])
	if err != nil {
		return domain.Slot{}, fmt.Errorf("redis: slot get %s: %w", key, err)
	}
	return domain.Slot{Payload: []byte(payload), FetchedAt: fetchedAt}, nil
}

// Put overwrites both payload and timestamp in one command.
func (sc *SlotCache) Put(ctx context.Context, key string, payload []byte) error {
	fields := map[string]interface{}{
		"payload":    payload,
		"fetched_at": strconv.FormatInt(sc.now().UnixNano(), 10),
	}
	if err := sc.c.rdb.HSet(ctx, sc.slotKey(key), fields).Err(); err != nil {
		return fmt.Errorf("redis: slot put %s: %w", key, err)
	}
	return nil
}

func parseNanos(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse fetched_at %q: %w", s, err)
	}
	return time.Unix(0, n), nil
}

// Compile-time interface check.
var _ domain.SlotCache = (*SlotCache)(nil)
