// Package bus delivers domain events to the parties subscribed to their topics.
//
// Hub is the in-process side: every subscriber owns a bounded queue fed in publish order,
// so a subscriber sees the events of one ShopOrder in the order they were published. A
// subscriber that falls behind by more than its queue is disconnected rather than silently
// skipped; clients reconnect and reload the current state.
package bus

import (
	"context"
	"log/slog"
	"sync"

	"fulfillment/internal/core/domain/model/events"
)

// DefaultQueueSize is the number of undelivered events a subscriber may lag behind.
const DefaultQueueSize = 64

type Hub struct {
	mu        sync.RWMutex
	topics    map[events.Topic]map[*Subscription]struct{}
	queueSize int
	closed    bool
	logger    *slog.Logger
}

func NewHub(queueSize int, logger *slog.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		topics:    make(map[events.Topic]map[*Subscription]struct{}),
		queueSize: queueSize,
		logger:    logger.With("component", "EventHub"),
	}
}

// Subscription receives every event addressed to one of its topics, once.
type Subscription struct {
	hub    *Hub
	topics []events.Topic
	queue  chan events.Event
	once   sync.Once
	lagged bool
}

// Subscribe registers a subscriber on topics. Close it when the client goes away.
func (h *Hub) Subscribe(topics ...events.Topic) *Subscription {
	sub := &Subscription{
		hub:    h,
		topics: append([]events.Topic(nil), topics...),
		queue:  make(chan events.Event, h.queueSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		h.remove(sub)
		return sub
	}
	for _, topic := range sub.topics {
		subs, ok := h.topics[topic]
		if !ok {
			subs = make(map[*Subscription]struct{})
			h.topics[topic] = subs
		}
		subs[sub] = struct{}{}
	}
	return sub
}

// Events is closed when the subscription ends, either by Close or because it lagged.
func (s *Subscription) Events() <-chan events.Event {
	return s.queue
}

// Lagged reports whether the hub dropped the subscriber for falling behind. Only meaningful
// once Events is closed.
func (s *Subscription) Lagged() bool {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	return s.lagged
}

func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.remove(s)
}

// Publish implements ports.EventPublisher. It never blocks on a slow subscriber.
func (h *Hub) Publish(ctx context.Context, evts ...events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, e := range evts {
		for _, sub := range h.recipients(e) {
			select {
			case sub.queue <- e:
			default:
				sub.lagged = true
				h.remove(sub)
				h.logger.WarnContext(ctx, "subscriber dropped for lagging",
					"topics", sub.topics, "event", e.Kind(), "key", e.Key())
			}
		}
	}
	return nil
}

// Close ends every subscription and refuses new ones. Publishing after Close is a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, subs := range h.topics {
		for sub := range subs {
			h.remove(sub)
		}
	}
}

// Subscribers returns the number of live subscriptions on topic.
func (h *Hub) Subscribers(topic events.Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// recipients deduplicates subscribers reached through several of the event's topics.
func (h *Hub) recipients(e events.Event) []*Subscription {
	var out []*Subscription
	seen := make(map[*Subscription]struct{})
	for _, topic := range e.Topics() {
		for sub := range h.topics[topic] {
			if _, dup := seen[sub]; dup {
				continue
			}
			seen[sub] = struct{}{}
			out = append(out, sub)
		}
	}
	return out
}

// remove must be called with h.mu held.
func (h *Hub) remove(sub *Subscription) {
	sub.once.Do(func() {
		for _, topic := range sub.topics {
			subs := h.topics[topic]
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
		close(sub.queue)
	})
}
