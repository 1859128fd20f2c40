package main

import (
	"sync"
)

// bus fans a session's events out to every live subscriber. Delivery is
// best effort: each subscriber gets a small buffer to absorb bursts, and
// a subscriber that falls behind is kicked rather than blocked on. The
// connection handler treats a kicked subscriber like a closed connection,
// so dropping is safe. A publish with zero subscribers is discarded.
type bus struct {
	mu          sync.Mutex
	subscribers map[*subscriber]bool
	buffer      int
}

type subscriber struct {
	ch chan []byte
}

func newBus(buffer int) *bus {
	return &bus{subscribers: map[*subscriber]bool{}, buffer: buffer}
}

func (b *bus) subscribe() *subscriber {
	sub := &subscriber{ch: make(chan []byte, b.buffer)}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[sub] = true
	return sub
}

// unsubscribe removes sub and closes its channel. No-op if the bus
// already kicked it, so publish and unsubscribe never double-close.
func (b *bus) unsubscribe(sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribers[sub] {
		delete(b.subscribers, sub)
		close(sub.ch)
	}
}

func (b *bus) publish(msg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subscribers {
		select {
		case sub.ch <- msg:
		default:
			delete(b.subscribers, sub)
			close(sub.ch)
		}
	}
}

func (b *bus) subscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
