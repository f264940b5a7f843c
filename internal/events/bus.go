package events

import (
	"sync"
	"time"
)

// Handler processes a single event. Handlers must not block: the bus
// dispatches synchronously on the emitting goroutine.
type Handler func(Event)

// Bus fans events out to subscribed handlers. Safe for concurrent
// Emit and Subscribe.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates an event bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all subsequent events
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Emit timestamps the event and dispatches it to every handler in
// subscription order
func (b *Bus) Emit(e Event) {
	e.Time = time.Now()

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
