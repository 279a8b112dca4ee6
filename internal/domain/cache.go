package domain

import (
	"context"
	"time"
)

// Slot is the last known good payload for one cache key.
type Slot struct {
	Payload   []byte
	FetchedAt time.Time
}

// SlotCache holds one slot per logical data source. Put replaces payload and
// timestamp together; freshness is judged against a single uniform TTL.
type SlotCache interface {
	IsFresh(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (Slot, error)
	Put(ctx context.Context, key string, payload []byte) error
}

// SignalBus provides fire-and-forget pub/sub for scan snapshots.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
