package hub

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultBuffer is the per-subscriber queue depth used when none is given.
const DefaultBuffer = 64

// Event is one named notification fanned out to every subscriber.
// Payloads are shared between subscribers and must be treated as read-only.
type Event struct {
	Name    string
	Payload interface{}
}

// Subscription is the handle a subscriber reads its events from. Events is
// closed when the subscriber is removed, either by Unsubscribe or because it
// fell behind.
type Subscription struct {
	ID     int64
	Events <-chan Event
}

// Hub is a registry of live subscribers, each behind its own buffered queue.
// Publishing never blocks: a subscriber whose queue is full is dropped.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int64]chan Event
	seq    atomic.Int64
	buffer int
	logger *zap.Logger
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[int64]chan Event),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a new subscriber. The initial events are queued before
// the subscriber is visible to Publish, so they always arrive first.
func (h *Hub) Subscribe(initial ...Event) *Subscription {
	id := h.seq.Add(1)

	size := h.buffer
	if len(initial) >= size {
		size = len(initial) + 1
	}
	ch := make(chan Event, size)
	for _, evt := range initial {
		ch <- evt
	}

	h.mu.Lock()
	h.subs[id] = ch
	n := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("Subscriber registered", zap.Int64("id", id), zap.Int("subscribers", n))
	return &Subscription{ID: id, Events: ch}
}

// Unsubscribe removes the subscriber and closes its channel. Unknown or
// already removed ids are ignored.
func (h *Hub) Unsubscribe(id int64) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(ch)
	}
	h.mu.Unlock()

	if ok {
		h.logger.Debug("Subscriber removed", zap.Int64("id", id))
	}
}

// Publish offers evt to every registered subscriber. Subscribers whose queue
// is full are removed once the fan-out is done.
func (h *Hub) Publish(evt Event) {
	var lagging []int64

	h.mu.RLock()
	for id, ch := range h.subs {
		select {
		case ch <- evt:
		default:
			lagging = append(lagging, id)
		}
	}
	h.mu.RUnlock()

	if len(lagging) == 0 {
		return
	}
	h.mu.Lock()
	for _, id := range lagging {
		if ch, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
			h.logger.Warn("Disconnected lagging subscriber", zap.Int64("id", id), zap.String("event", evt.Name))
		}
	}
	h.mu.Unlock()
}

// Len reports the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
