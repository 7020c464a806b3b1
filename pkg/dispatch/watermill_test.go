package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) *WatermillDispatcher {
	t.Helper()

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            10,
			Persistent:                     true,
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NopLogger{},
	)

	t.Cleanup(func() { _ = pubSub.Close() })

	return NewWatermillDispatcher(pubSub, pubSub)
}

// collector records delivered messages so tests can wait for them by count.
type collector struct {
	mu       sync.Mutex
	received []any
	signal   chan struct{}
}

func newCollector() *collector {
	return &collector{signal: make(chan struct{}, 16)}
}

func (c *collector) handle(_ context.Context, msg any) error {
	c.mu.Lock()
	c.received = append(c.received, msg)
	c.mu.Unlock()
	c.signal <- struct{}{}

	return nil
}

func (c *collector) wait(t *testing.T, n int) []any {
	t.Helper()

	for {
		c.mu.Lock()
		count := len(c.received)
		c.mu.Unlock()

		if count >= n {
			break
		}

		select {
		case <-c.signal:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %d messages, got %d", n, count)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]any(nil), c.received...)
}

func TestPublishDeliversToTypedHandler(t *testing.T) {
	dispatcher := newTestDispatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	triggers := newCollector()
	activations := newCollector()

	require.NoError(t, dispatcher.Handle(WorkflowTriggerMessage, triggers.handle))
	require.NoError(t, dispatcher.Handle(NodeActivationMessage, activations.handle))
	require.NoError(t, dispatcher.Subscribe(ctx))

	trigger := WorkflowTrigger{
		BaseMessage: BaseMessage{ID: dispatcher.GenerateID(), Timestamp: time.Now().UTC()},
		WorkflowID:  "wf-1",
		TriggeredBy: "manual",
		Payload:     map[string]any{"amount": 1500.0},
	}
	require.NoError(t, dispatcher.Publish(ctx, "wf-1", trigger))

	activation := NodeActivation{
		BaseMessage: BaseMessage{ID: dispatcher.GenerateID(), Timestamp: time.Now().UTC()},
		ExecutionID: "ex-1",
		NodeID:      "work",
	}
	require.NoError(t, dispatcher.Publish(ctx, "ex-1", activation))

	received := triggers.wait(t, 1)
	got, ok := received[0].(*WorkflowTrigger)
	require.True(t, ok)
	assert.Equal(t, "wf-1", got.WorkflowID)
	assert.Equal(t, map[string]any{"amount": 1500.0}, got.Payload)

	received = activations.wait(t, 1)
	gotActivation, ok := received[0].(*NodeActivation)
	require.True(t, ok)
	assert.Equal(t, "work", gotActivation.NodeID)
}

func TestPublishAfterDefersDelivery(t *testing.T) {
	dispatcher := newTestDispatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	continuations := newCollector()

	require.NoError(t, dispatcher.Handle(DelayContinuationMessage, continuations.handle))
	require.NoError(t, dispatcher.Subscribe(ctx))

	resumeAt := time.Now().UTC().Add(20 * time.Millisecond)
	msg := DelayContinuation{
		BaseMessage: BaseMessage{ID: dispatcher.GenerateID(), Timestamp: time.Now().UTC()},
		ExecutionID: "ex-1",
		NodeID:      "wait",
		ResumeAt:    resumeAt,
	}

	start := time.Now()
	require.NoError(t, dispatcher.PublishAfter(ctx, "ex-1", msg, 20*time.Millisecond))

	received := continuations.wait(t, 1)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	got, ok := received[0].(*DelayContinuation)
	require.True(t, ok)
	assert.Equal(t, "wait", got.NodeID)
	assert.True(t, got.ResumeAt.Equal(resumeAt))
}

func TestPublishAfterZeroDelayPublishesImmediately(t *testing.T) {
	dispatcher := newTestDispatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	continuations := newCollector()

	require.NoError(t, dispatcher.Handle(DelayContinuationMessage, continuations.handle))
	require.NoError(t, dispatcher.Subscribe(ctx))

	msg := DelayContinuation{
		BaseMessage: BaseMessage{ID: dispatcher.GenerateID(), Timestamp: time.Now().UTC()},
		ExecutionID: "ex-1",
		NodeID:      "wait",
	}
	require.NoError(t, dispatcher.PublishAfter(ctx, "ex-1", msg, 0))

	continuations.wait(t, 1)
}

func TestUnhandledMessageTypeIsIgnored(t *testing.T) {
	dispatcher := newTestDispatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	triggers := newCollector()

	// Only triggers are handled; activations should be acked and dropped.
	require.NoError(t, dispatcher.Handle(WorkflowTriggerMessage, triggers.handle))
	require.NoError(t, dispatcher.Subscribe(ctx))

	activation := NodeActivation{
		BaseMessage: BaseMessage{ID: dispatcher.GenerateID(), Timestamp: time.Now().UTC()},
		ExecutionID: "ex-1",
		NodeID:      "work",
	}
	require.NoError(t, dispatcher.Publish(ctx, "ex-1", activation))

	trigger := WorkflowTrigger{
		BaseMessage: BaseMessage{ID: dispatcher.GenerateID(), Timestamp: time.Now().UTC()},
		WorkflowID:  "wf-1",
	}
	require.NoError(t, dispatcher.Publish(ctx, "wf-1", trigger))

	received := triggers.wait(t, 1)
	assert.Len(t, received, 1)
}

func TestGenerateIDIsUnique(t *testing.T) {
	dispatcher := newTestDispatcher(t)

	seen := make(map[string]bool)

	for range 100 {
		id := dispatcher.GenerateID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
