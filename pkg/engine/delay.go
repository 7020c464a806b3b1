package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stepflow-io/stepflow/pkg/dispatch"
)

// ContinuationScheduler arranges the deferred resumption of executions
// paused on delay nodes. It hands a delayed work unit to the dispatcher; the
// coordinator absorbs duplicate deliveries, so the scheduler makes no
// exactly-once promise.
type ContinuationScheduler struct {
	logger     *slog.Logger
	dispatcher dispatch.Dispatcher
}

func NewContinuationScheduler(logger *slog.Logger, dispatcher dispatch.Dispatcher) *ContinuationScheduler {
	return &ContinuationScheduler{
		logger:     logger.With("module", "delay_scheduler"),
		dispatcher: dispatcher,
	}
}

func (s *ContinuationScheduler) ScheduleContinuation(ctx context.Context, executionID, nodeID string, duration time.Duration) error {
	now := time.Now().UTC()
	msg := dispatch.DelayContinuation{
		BaseMessage: dispatch.BaseMessage{
			ID:        s.dispatcher.GenerateID(),
			Timestamp: now,
		},
		ExecutionID: executionID,
		NodeID:      nodeID,
		ResumeAt:    now.Add(duration),
	}

	if err := s.dispatcher.PublishAfter(ctx, executionID, msg, duration); err != nil {
		return fmt.Errorf("scheduling continuation for execution %s: %w", executionID, err)
	}

	s.logger.DebugContext(ctx, "Delay continuation scheduled",
		"execution_id", executionID, "node_id", nodeID, "resume_at", msg.ResumeAt)

	return nil
}
