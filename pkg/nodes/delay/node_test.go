package delay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow-io/stepflow/pkg/models"
)

type fakeScheduler struct {
	executionID string
	nodeID      string
	duration    time.Duration
	err         error
}

func (s *fakeScheduler) ScheduleContinuation(_ context.Context, executionID, nodeID string, duration time.Duration) error {
	s.executionID = executionID
	s.nodeID = nodeID
	s.duration = duration

	return s.err
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected time.Duration
		wantErr  bool
	}{
		{name: "duration string", value: "90s", expected: 90 * time.Second},
		{name: "minutes string", value: "5m", expected: 5 * time.Minute},
		{name: "numeric seconds", value: 2.5, expected: 2500 * time.Millisecond},
		{name: "zero", value: 0.0, wantErr: true},
		{name: "negative string", value: "-5s", wantErr: true},
		{name: "garbage string", value: "soon", wantErr: true},
		{name: "missing", value: nil, wantErr: true},
		{name: "wrong type", value: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDuration(tt.value)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDelayNodeSchedulesAndPauses(t *testing.T) {
	scheduler := &fakeScheduler{}

	node, err := NewDelayNode("wait", map[string]any{"duration": "30s"}, scheduler)
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), models.ExecutionContext{
		ExecutionID: "ex1",
	})
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.True(t, outcome.PauseExecution)
	assert.NotEmpty(t, outcome.Variables["delay_resume_at"])
	assert.Equal(t, "ex1", scheduler.executionID)
	assert.Equal(t, "wait", scheduler.nodeID)
	assert.Equal(t, 30*time.Second, scheduler.duration)
}

func TestDelayNodeSchedulerFailureFailsOutcome(t *testing.T) {
	scheduler := &fakeScheduler{err: errors.New("queue down")}

	node, err := NewDelayNode("wait", map[string]any{"duration": "30s"}, scheduler)
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), models.ExecutionContext{ExecutionID: "ex1"})
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "queue down")
}
