package memory

import (
	"context"
	"sync"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// subscriberBuffer is the per-subscriber channel capacity. Messages published
// to a full subscriber are dropped.
const subscriberBuffer = 16

// SignalBus is an in-process domain.SignalBus used when Redis is not
// configured. Delivery is best effort.
type SignalBus struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

// NewSignalBus creates an empty SignalBus.
func NewSignalBus() *SignalBus {
	return &SignalBus{subs: make(map[string]map[chan []byte]struct{})}
}

// Publish fans payload out to every current subscriber of channel.
func (b *SignalBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber that is removed, and its channel closed,
// when ctx is cancelled.
func (b *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[chan []byte]struct{})
	}
	b.subs[channel][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[channel], ch)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}

// Compile-time interface check.
var _ domain.SignalBus = (*SignalBus)(nil)
