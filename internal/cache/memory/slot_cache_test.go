package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestSlotCache(t *testing.T) {
	ctx := context.Background()

	t.Run("empty slot is not fresh", func(t *testing.T) {
		c := NewSlotCache(time.Minute)
		fresh, err := c.IsFresh(ctx, "opinion:markets")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fresh {
			t.Error("empty slot reported fresh")
		}
		if _, err := c.Get(ctx, "opinion:markets"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Get on empty slot: err = %v, want ErrNotFound", err)
		}
	})

	t.Run("fresh within ttl and stale after", func(t *testing.T) {
		clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
		c := NewSlotCache(time.Minute, WithClock(clock.Now))

		if err := c.Put(ctx, "k", []byte(`[]`)); err != nil {
			t.Fatalf("Put: %v", err)
		}

		clock.Advance(59 * time.Second)
		if fresh, _ := c.IsFresh(ctx, "k"); !fresh {
			t.Error("slot should be fresh at 59s")
		}

		clock.Advance(time.Second)
		if fresh, _ := c.IsFresh(ctx, "k"); fresh {
			t.Error("slot should be stale at exactly the ttl")
		}

		slot, err := c.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get after staleness: %v", err)
		}
		if string(slot.Payload) != `[]` {
			t.Errorf("payload = %q, want %q", slot.Payload, `[]`)
		}
	})

	t.Run("put replaces payload and timestamp together", func(t *testing.T) {
		clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
		c := NewSlotCache(time.Minute, WithClock(clock.Now))

		_ = c.Put(ctx, "k", []byte("one"))
		clock.Advance(2 * time.Minute)
		_ = c.Put(ctx, "k", []byte("two"))

		slot, _ := c.Get(ctx, "k")
		if string(slot.Payload) != "two" {
			t.Errorf("payload = %q, want %q", slot.Payload, "two")
		}
		if !slot.FetchedAt.Equal(clock.Now()) {
			t.Errorf("FetchedAt = %v, want %v", slot.FetchedAt, clock.Now())
		}
		if fresh, _ := c.IsFresh(ctx, "k"); !fresh {
			t.Error("slot should be fresh right after Put")
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		c := NewSlotCache(time.Minute)
		_ = c.Put(ctx, "a", []byte("x"))
		if fresh, _ := c.IsFresh(ctx, "b"); fresh {
			t.Error("writing a must not make b fresh")
		}
	})

	t.Run("stored payload is a copy", func(t *testing.T) {
		c := NewSlotCache(time.Minute)
		buf := []byte("abc")
		_ = c.Put(ctx, "k", buf)
		buf[0] = 'z'
		slot, _ := c.Get(ctx, "k")
		if string(slot.Payload) != "abc" {
			t.Errorf("payload = %q, want %q", slot.Payload, "abc")
		}
	})

	t.Run("non-positive ttl uses default", func(t *testing.T) {
		c := NewSlotCache(0)
		if c.ttl != DefaultTTL {
			t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
		}
	})
}

func TestSignalBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewSignalBus()

	ch, err := bus.Subscribe(ctx, "scan")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := bus.Publish(context.Background(), "scan", []byte("hello")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := bus.Publish(context.Background(), "other", []byte("ignored")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-ch:
		if string(msg) != "hello" {
			t.Errorf("msg = %q, want %q", msg, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
