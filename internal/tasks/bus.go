package tasks

import (
	"context"
	"sync"

	"github.com/desertthunder/ytq/internal/shared"
)

// Bus is an unbounded multi-producer single-consumer event queue.
//
// A pump goroutine moves queued events onto the channel returned by [Bus.C].
type Bus struct {
	mu     sync.Mutex
	queue  []Event
	closed bool

	wake chan struct{}
	done chan struct{}
	out  chan Event
	once sync.Once
}

// NewBus creates a bus and starts its pump.
func NewBus() *Bus {
	b := &Bus{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan Event),
	}
	go b.pump()
	return b
}

// Send queues e without blocking. It reports false once the bus is closed.
func (b *Bus) Send(e Event) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.queue = append(b.queue, e)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return true
}

// C returns the receive side. It is closed after [Bus.Close].
func (b *Bus) C() <-chan Event {
	return b.out
}

// Next blocks for the next event. It returns [shared.ErrChannelClosed] after [Bus.Close].
func (b *Bus) Next(ctx context.Context) (Event, error) {
	select {
	case e, ok := <-b.out:
		if !ok {
			return Event{}, shared.ErrChannelClosed
		}
		return e, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close stops the pump. Queued events are discarded and later sends are dropped.
func (b *Bus) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.queue = nil
		b.mu.Unlock()
		close(b.done)
	})
}

func (b *Bus) pump() {
	defer close(b.out)
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			select {
			case <-b.wake:
				continue
			case <-b.done:
				return
			}
		}
		e := b.queue[0]
		b.queue[0] = Event{}
		b.queue = b.queue[1:]
		b.mu.Unlock()

		select {
		case b.out <- e:
		case <-b.done:
			return
		}
	}
}
