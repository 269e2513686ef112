package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for in-process event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(ReconcileCompletedEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event's generic Publish needs the concrete type.
	switch e := ev.(type) {
	case TopologyChangedEvent:
		event.Publish(b.dispatcher, e)
	case ReconcileCompletedEvent:
		event.Publish(b.dispatcher, e)
	case ReconcileFailedEvent:
		event.Publish(b.dispatcher, e)
	case VolumeAdjustedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler signature determines which events it receives.
// Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e ReconcileCompletedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(TopologyChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ReconcileCompletedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ReconcileFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(VolumeAdjustedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
