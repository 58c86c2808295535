package event

import (
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/somesimplify/somectl/internal/logging"
)

// Handler is a function that handles an event.
type Handler func(Event)

// Subscription identifies a registered handler. The zero value is never
// handed out.
type Subscription uint64

type entry struct {
	id Subscription
	// eventType is empty for handlers registered with SubscribeAll.
	eventType string
	handler   Handler
}

func (e entry) matches(eventType string) bool {
	return e.eventType == eventType
}

// Bus delivers events synchronously to every matching handler on the
// publishing goroutine. It is safe for concurrent use.
type Bus struct {
	mu      sync.RWMutex
	entries []entry
	seq     atomic.Uint64
	logger  *logging.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used to report panicking handlers.
func WithLogger(logger *logging.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger.WithComponent("event")
		}
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{logger: logging.NopLogger()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for events of eventType.
func (b *Bus) Subscribe(eventType string, handler Handler) Subscription {
	return b.add(eventType, handler)
}

// SubscribeAll registers handler for every event.
func (b *Bus) SubscribeAll(handler Handler) Subscription {
	return b.add("", handler)
}

func (b *Bus) add(eventType string, handler Handler) Subscription {
	id := Subscription(b.seq.Add(1))
	b.mu.Lock()
	b.entries = append(b.entries, entry{id: id, eventType: eventType, handler: handler})
	b.mu.Unlock()
	return id
}

// Unsubscribe removes the handler registered under id and reports whether
// it was still registered.
func (b *Bus) Unsubscribe(id Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.entries, func(e entry) bool { return e.id == id })
	if i < 0 {
		return false
	}
	b.entries = slices.Delete(b.entries, i, i+1)
	return true
}

// Publish hands ev to the handlers subscribed to its type, then to the
// SubscribeAll handlers, each in registration order. A handler that panics
// is logged and the remaining handlers still run.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	var typed, catchAll []Handler
	for _, e := range b.entries {
		switch {
		case e.matches(ev.EventType()):
			typed = append(typed, e.handler)
		case e.eventType == "":
			catchAll = append(catchAll, e.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range append(typed, catchAll...) {
		b.deliver(h, ev)
	}
}

func (b *Bus) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_type", ev.EventType(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	h(ev)
}

// Clear removes every subscription.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()
}

// SubscriptionCount returns the number of registered handlers.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
