package shared

import "context"

// EventHandler reacts to domain events.
type EventHandler interface {
	// Handle processes one event. Returning an error marks the delivery
	// failed for this handler only.
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types the handler wants. An empty slice
	// subscribes it to everything.
	EventTypes() []string
}

// EventPublisher hands domain events to whatever bus is wired in.
// Application services hold this narrow interface so they never depend
// on a concrete bus.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registrations.
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is both sides of the in-process pub/sub.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
