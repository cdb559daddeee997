package broker

import (
	"context"
	"errors"
	"sync"

	"quotesignal/internal/domain/interfaces"
)

// ErrBusFull is returned when a non-blocking publish finds no free slot.
var ErrBusFull = errors.New("bus is full")

// MemoryBus is an in-process bus with a bounded buffer. Both ends are
// non-blocking: a full buffer rejects publishes and an empty one yields no message.
type MemoryBus struct {
	mu     sync.RWMutex
	ch     chan []byte
	closed bool
}

var (
	_ interfaces.Subscriber = (*MemoryBus)(nil)
	_ interfaces.Publisher  = (*MemoryBus)(nil)
)

func NewMemoryBus(capacity int) *MemoryBus {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryBus{ch: make(chan []byte, capacity)}
}

func (b *MemoryBus) TryPublish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return interfaces.ErrSubscriptionClosed
	}
	body := make([]byte, len(payload))
	copy(body, payload)
	select {
	case b.ch <- body:
		return nil
	default:
		return ErrBusFull
	}
}

func (b *MemoryBus) TryReceive(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	select {
	case payload, ok := <-b.ch:
		if !ok {
			return nil, false, interfaces.ErrSubscriptionClosed
		}
		return payload, true, nil
	default:
		return nil, false, nil
	}
}

// Len reports the number of buffered payloads.
func (b *MemoryBus) Len() int {
	return len(b.ch)
}

// Close stops accepting payloads. Buffered payloads can still be received.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.ch)
}
