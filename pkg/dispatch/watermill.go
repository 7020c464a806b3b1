package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// WatermillDispatcher implements Dispatcher over a watermill publisher and
// subscriber pair. The broker behind the pair (Kafka in production, an
// in-memory GoChannel in tests and development) provides the at-least-once
// delivery guarantee.
type WatermillDispatcher struct {
	publisher     message.Publisher
	subscriber    message.Subscriber
	subscriptions map[MessageType]Handler
}

func NewWatermillDispatcher(pub message.Publisher, sub message.Subscriber) *WatermillDispatcher {
	return &WatermillDispatcher{
		publisher:     pub,
		subscriber:    sub,
		subscriptions: make(map[MessageType]Handler),
	}
}

func (d *WatermillDispatcher) GenerateID() string {
	return watermill.NewULID()
}

func (d *WatermillDispatcher) Publish(_ context.Context, key string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	wm := message.NewMessage("msg-"+d.GenerateID(), payload)
	wm.Metadata.Set(MessageKeyMetadata, key)
	wm.Metadata.Set(MessageTypeMetadata, string(msg.GetType()))

	return d.publisher.Publish(Topic, wm)
}

// PublishAfter defers publication with an in-process timer. The deferral is
// not durable across a process restart; the delay scheduler compensates by
// stamping ResumeAt on the continuation so a redelivered or re-scheduled
// continuation stays idempotent at the coordinator.
func (d *WatermillDispatcher) PublishAfter(ctx context.Context, key string, msg Message, delay time.Duration) error {
	if delay <= 0 {
		return d.Publish(ctx, key, msg)
	}

	time.AfterFunc(delay, func() {
		// Detached from the caller's context: the trigger call has long
		// returned by the time the timer fires.
		_ = d.Publish(context.Background(), key, msg)
	})

	return nil
}

func (d *WatermillDispatcher) Handle(msgType MessageType, handler Handler) error {
	d.subscriptions[msgType] = handler

	return nil
}

func (d *WatermillDispatcher) Subscribe(ctx context.Context) error {
	messages, err := d.subscriber.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}

	go func() {
		for wm := range messages {
			msgType := MessageType(wm.Metadata.Get(MessageTypeMetadata))

			handler, exists := d.subscriptions[msgType]
			if !exists {
				wm.Ack()

				continue
			}

			var msg any

			switch msgType {
			case WorkflowTriggerMessage:
				msg = &WorkflowTrigger{}
			case NodeActivationMessage:
				msg = &NodeActivation{}
			case DelayContinuationMessage:
				msg = &DelayContinuation{}
			default:
				wm.Nack()

				continue
			}

			if err := json.Unmarshal(wm.Payload, msg); err != nil {
				wm.Nack()

				continue
			}

			if err := handler(ctx, msg); err != nil {
				wm.Nack()

				continue
			}

			wm.Ack()
		}
	}()

	return nil
}

func (d *WatermillDispatcher) Close() error {
	if err := d.publisher.Close(); err != nil {
		return err
	}

	return d.subscriber.Close()
}
