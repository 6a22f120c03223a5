package events

import (
	"context"
	"fmt"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// memoryDispatcher runs handlers inline on the publisher's goroutine,
// inside whatever transaction the publisher's context carries.
type memoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &memoryDispatcher{listeners: make(map[EventType][]EventHandler)}
}

// Subscribe registers a handler for the given event type. Handlers fire
// in subscription order.
func (d *memoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Publish invokes the handlers subscribed to the event's type. The first
// handler error aborts the chain and is returned so the caller can roll
// back its transaction.
func (d *memoryDispatcher) Publish(ctx context.Context, event Event) error {
	for _, handler := range d.snapshot(event.Type) {
		if err := handler(ctx, event); err != nil {
			return fmt.Errorf("handle %s: %w", event.Type, err)
		}
	}
	return nil
}

func (d *memoryDispatcher) snapshot(eventType EventType) []EventHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	handlers := make([]EventHandler, len(d.listeners[eventType]))
	copy(handlers, d.listeners[eventType])
	return handlers
}
