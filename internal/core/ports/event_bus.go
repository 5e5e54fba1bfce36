package ports

import "context"

// Event wraps a payload published on the bus. The activation workflow
// publishes domain.StatusChangedEvent under domain.TopicKycStatusChanged.
type Event struct {
	Topic string
	Data  interface{}
}

// EventHandler consumes one event. Handlers run outside the publishing
// request and must not assume its context is still alive.
type EventHandler func(ctx context.Context, event Event) error

// EventBus is the in-process pub/sub port for KYC status transitions.
type EventBus interface {
	// Publish sends an event to all subscribers of a topic.
	Publish(ctx context.Context, topic string, data interface{}) error

	// Subscribe registers a handler for a specific topic.
	Subscribe(topic string, handler EventHandler)
}
