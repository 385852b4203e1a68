// Package events carries the in-process notifications that trigger
// projection recomputes: a candidate edit, a replaced booking snapshot,
// or a failed fetch. Subscribers rebuild derived state from scratch
// rather than patching it.
package events

import (
	"sync"
	"time"

	"meetroom/internal/model"
)

// Event types.
const (
	TypeCandidateChanged = "candidate_changed"
	TypeSnapshotReplaced = "snapshot_replaced"
	TypeFetchFailed      = "fetch_failed"
)

// Event is a lightweight domain event scoped to one room and date.
type Event struct {
	Type      string
	RoomID    string
	Date      model.Date
	CreatedAt time.Time
}

// Handler reacts to an event.
type Handler func(event Event) error

// Bus provides in-process pub/sub for events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}
