package bridge

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/moffa90/go-genie/protocol"
)

// Hub fans reports out to event stream subscribers. A subscriber that falls
// behind loses reports rather than stalling the others.
type Hub struct {
	mu      sync.Mutex
	subs    map[chan protocol.Reply]struct{}
	dropped atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan protocol.Reply]struct{})}
}

// Subscribe returns a channel of reports and a function that ends the
// subscription and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan protocol.Reply, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan protocol.Reply, buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers r to every subscriber with room for it.
func (h *Hub) Publish(r protocol.Reply) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- r:
		default:
			h.dropped.Add(1)
		}
	}
}

// Handle publishes r. It has the signature of dispatch.Handler so the hub
// can be registered as a dispatcher fallback.
func (h *Hub) Handle(ctx context.Context, r protocol.Reply) error {
	h.Publish(r)
	return nil
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns the number of reports lost to slow subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
