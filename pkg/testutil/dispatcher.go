// Package testutil provides in-process test doubles and graph builders.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stepflow-io/stepflow/pkg/dispatch"
)

// DelayedMessage is a work unit captured by PublishAfter, waiting for an
// explicit release.
type DelayedMessage struct {
	Key   string
	Msg   dispatch.Message
	Delay time.Duration
}

// SyncDispatcher delivers published work units to their handlers
// synchronously, inside the Publish call. Messages round-trip through JSON
// so handlers see the same decoded pointer types they would receive from the
// real queue. Delayed publications are captured instead of delivered;
// release them with DeliverDelayed.
type SyncDispatcher struct {
	mu       sync.Mutex
	handlers map[dispatch.MessageType]dispatch.Handler

	Published []dispatch.Message
	Delayed   []DelayedMessage
}

func NewSyncDispatcher() *SyncDispatcher {
	return &SyncDispatcher{
		handlers: make(map[dispatch.MessageType]dispatch.Handler),
	}
}

func (d *SyncDispatcher) GenerateID() string {
	return uuid.New().String()
}

func (d *SyncDispatcher) Handle(msgType dispatch.MessageType, handler dispatch.Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[msgType] = handler

	return nil
}

func (d *SyncDispatcher) Subscribe(_ context.Context) error {
	return nil
}

func (d *SyncDispatcher) Publish(ctx context.Context, _ string, msg dispatch.Message) error {
	d.mu.Lock()
	d.Published = append(d.Published, msg)
	handler := d.handlers[msg.GetType()]
	d.mu.Unlock()

	if handler == nil {
		return nil
	}

	decoded, err := decode(msg)
	if err != nil {
		return err
	}

	return handler(ctx, decoded)
}

func (d *SyncDispatcher) PublishAfter(_ context.Context, key string, msg dispatch.Message, delay time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Delayed = append(d.Delayed, DelayedMessage{Key: key, Msg: msg, Delay: delay})

	return nil
}

// DeliverDelayed releases every captured delayed message to its handler, as
// if all timers had fired.
func (d *SyncDispatcher) DeliverDelayed(ctx context.Context) error {
	d.mu.Lock()
	delayed := d.Delayed
	d.Delayed = nil
	d.mu.Unlock()

	for _, dm := range delayed {
		if err := d.Publish(ctx, dm.Key, dm.Msg); err != nil {
			return err
		}
	}

	return nil
}

// Redeliver pushes an already-delivered message through its handler again,
// simulating an at-least-once duplicate.
func (d *SyncDispatcher) Redeliver(ctx context.Context, msg dispatch.Message) error {
	d.mu.Lock()
	handler := d.handlers[msg.GetType()]
	d.mu.Unlock()

	if handler == nil {
		return nil
	}

	decoded, err := decode(msg)
	if err != nil {
		return err
	}

	return handler(ctx, decoded)
}

func (d *SyncDispatcher) Close() error {
	return nil
}

func decode(msg dispatch.Message) (any, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	var decoded any

	switch msg.GetType() {
	case dispatch.WorkflowTriggerMessage:
		decoded = &dispatch.WorkflowTrigger{}
	case dispatch.NodeActivationMessage:
		decoded = &dispatch.NodeActivation{}
	case dispatch.DelayContinuationMessage:
		decoded = &dispatch.DelayContinuation{}
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.GetType())
	}

	if err := json.Unmarshal(payload, decoded); err != nil {
		return nil, err
	}

	return decoded, nil
}
