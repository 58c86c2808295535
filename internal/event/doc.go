// Package event provides a pub-sub event bus for decoupled inter-component
// communication in somectl.
//
// The review queue, tenant resolver and content library publish events; the
// TUI turns them into transient notifications and the calendar service uses
// them to invalidate cached months.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Session and tenant:
//   - [SessionResolvedEvent]
//   - [TenantSelectedEvent], [TenantClearedEvent]
//
// Posts:
//   - [PostScheduledEvent], [PostRejectedEvent], [PostMutationFailedEvent]
//
// Images:
//   - [ImageUploadedEvent], [ImageDeletedEvent]
//
// Notifications:
//   - [NotificationEvent]
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously on the publishing goroutine and protected against panics.
//
// # Basic Usage
//
//	bus := event.NewBus(event.WithLogger(logger))
//
//	bus.Subscribe(event.TypePostScheduled, func(e event.Event) {
//	    scheduled := e.(event.PostScheduledEvent)
//	    cache.Invalidate(scheduled.TenantID)
//	})
//
//	bus.Publish(event.NewPostScheduledEvent("t-1", "p-1", publishAt))
package event
