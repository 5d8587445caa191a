package events

import (
	"context"
	"sync"
)

// Hub fans events out to SSE subscribers of the same tenant.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	buffer      int
	closed      bool
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
		buffer:      16,
	}
}

// Subscribe registers a new subscriber for a tenant and returns the event channel and cleanup function
func (h *Hub) Subscribe(tenantID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	if h.subscribers[tenantID] == nil {
		h.subscribers[tenantID] = make(map[chan Event]struct{})
	}
	h.subscribers[tenantID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subscribers[tenantID][ch]; !ok {
				return
			}
			delete(h.subscribers[tenantID], ch)
			close(ch)
			if len(h.subscribers[tenantID]) == 0 {
				delete(h.subscribers, tenantID)
			}
		})
	}

	return ch, cleanup
}

// Publish implements Publisher. Slow subscribers miss events rather than
// block the writer.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[event.TenantID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// SubscriberCount returns the number of active subscribers for a tenant
func (h *Hub) SubscriberCount(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[tenantID])
}

// TotalSubscribers returns the total number of active subscribers across all tenants
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

// Close ends every subscription. Streams see their channel closed and return.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for tenantID, subs := range h.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(h.subscribers, tenantID)
	}
}
