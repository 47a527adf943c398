package signal

import (
	"sync"
)

// Topic names a change feed. Stores publish to a topic scoped by owner so a
// subscriber only wakes for its own user's writes.
type Topic string

const (
	TopicCart          Topic = "cart"
	TopicNotifications Topic = "notifications"
)

// Event describes a store mutation.
type Event struct {
	Topic   Topic  `json:"topic"`
	OwnerID string `json:"ownerId"`
}

// Publisher is the write side of the change feed. Stores publish through it
// so they can run against the in-process Hub or the cross-process Bridge.
type Publisher interface {
	Publish(Event)
}

// Hub is an in-process broadcast channel. Every write to a cart or feed
// publishes an Event; subscribers get a non-blocking wakeup and re-read
// the store. Slow subscribers miss intermediate events, never writes.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

type subscription struct {
	topic   Topic
	ownerID string
	ch      chan Event
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]subscription)}
}

// Subscribe registers interest in a topic for one owner. The returned channel
// has a small buffer; if it is full the event is dropped, since any event only
// means "re-read". Cancel stops delivery and closes the channel.
func (h *Hub) Subscribe(topic Topic, ownerID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, 4)
	h.subs[id] = subscription{topic: topic, ownerID: ownerID, ch: ch}

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Publish notifies all matching subscribers without blocking the writer.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if sub.topic != event.Topic {
			continue
		}
		if sub.ownerID != "" && sub.ownerID != event.OwnerID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// SubscriberCount reports how many subscriptions are active for a topic.
func (h *Hub) SubscriberCount(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, sub := range h.subs {
		if sub.topic == topic {
			count++
		}
	}
	return count
}
