package queue

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestNewTriggerParsesConfig(t *testing.T) {
	trigger, err := NewTrigger(context.Background(), "wf-1", map[string]any{
		"queue": "orders",
		"connection": map[string]any{
			"addr":     "redis.internal:6379",
			"password": "secret",
			"db":       "2",
		},
	}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, "wf-1", trigger.WorkflowID)
	assert.Equal(t, "orders", trigger.Queue)
	assert.Equal(t, "redis.internal:6379", trigger.Connection["addr"])
	assert.Equal(t, "2", trigger.Connection["db"])
	assert.True(t, trigger.Enabled)
}

func TestNewTriggerRequiresQueue(t *testing.T) {
	_, err := NewTrigger(context.Background(), "wf-1", map[string]any{}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue name")
}

func TestNewTriggerRequiresWorkflowID(t *testing.T) {
	_, err := NewTrigger(context.Background(), "", map[string]any{
		"queue": "orders",
	}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow id")
}

func TestParseDB(t *testing.T) {
	trigger := &Trigger{}

	db, err := trigger.parseDB("3")
	require.NoError(t, err)
	assert.Equal(t, 3, db)

	_, err = trigger.parseDB("not a number")
	assert.Error(t, err)
}

func TestStartDisabledTriggerIsNoOp(t *testing.T) {
	trigger, err := NewTrigger(context.Background(), "wf-1", map[string]any{
		"queue": "orders",
	}, testLogger())
	require.NoError(t, err)

	trigger.Enabled = false

	// Disabled triggers never touch Redis.
	require.NoError(t, trigger.Start(context.Background(), nil))
}
