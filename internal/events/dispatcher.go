package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type handlerTable map[EventType][]EventHandler

// inMemoryDispatcher delivers events synchronously. Subscriptions replace
// the handler table as a whole, so Publish works on an immutable snapshot
// and never blocks on a concurrent Subscribe.
type inMemoryDispatcher struct {
	writeMu sync.Mutex
	table   atomic.Pointer[handlerTable]
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	d := &inMemoryDispatcher{}
	d.table.Store(&handlerTable{})
	return d
}

// Publish invokes every handler subscribed to the event type in
// subscription order. A failing handler does not stop the others; their
// errors are joined.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	handlers := (*d.table.Load())[event.Type]

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given event type. Publishes already
// in flight keep the table they started with.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	current := *d.table.Load()
	next := make(handlerTable, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	handlers := make([]EventHandler, 0, len(current[eventType])+1)
	handlers = append(handlers, current[eventType]...)
	next[eventType] = append(handlers, handler)
	d.table.Store(&next)
}
