// internal/adapter/events/hub.go

package events

import (
	"context"
	"sync"
	"time"
)

// Hub is an in-process event bus used when no NATS server is configured.
// It publishes the same envelopes as NATSPublisher.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(data []byte)
	now    func() time.Time
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[int]func(data []byte)),
		now:  time.Now,
	}
}

// Publish encodes payload and hands it to every subscriber.
func (h *Hub) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(subject, payload, h.now())
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.subs {
		fn(data)
	}
	return nil
}

// Subscribe registers fn and returns its cancel function.
func (h *Hub) Subscribe(fn func(data []byte)) (func(), error) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}, nil
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
