package dispatch

import (
	"context"
	"time"
)

// Handler processes one decoded work unit. Returning an error nacks the
// message so the queue redelivers it.
type Handler func(ctx context.Context, msg any) error

// Publisher enqueues work units.
type Publisher interface {
	Publish(ctx context.Context, key string, msg Message) error

	// PublishAfter enqueues a work unit once the delay has elapsed. Used by
	// the delay scheduler; consumers must absorb duplicate deliveries.
	PublishAfter(ctx context.Context, key string, msg Message, delay time.Duration) error
}

// Subscriber routes decoded work units to registered handlers.
type Subscriber interface {
	Handle(msgType MessageType, handler Handler) error
	Subscribe(ctx context.Context) error
}

// Dispatcher is the injected work queue abstraction. The engine is testable
// with an in-process synchronous implementation and runs against Kafka in
// production.
type Dispatcher interface {
	Publisher
	Subscriber
	Close() error
	GenerateID() string
}
