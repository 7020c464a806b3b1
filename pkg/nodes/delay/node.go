// Package delay implements the delay node kind: it schedules a deferred
// continuation and pauses the execution without holding a worker.
package delay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/protocol"
)

// Config is the typed configuration of a delay node. The duration accepts
// either a Go duration string ("90s", "5m") or a plain number of seconds.
type Config struct {
	Duration any `json:"duration"`
}

type DelayNode struct {
	id        string
	duration  time.Duration
	scheduler protocol.DelayScheduler
}

func NewDelayNode(id string, raw map[string]any, scheduler protocol.DelayScheduler) (*DelayNode, error) {
	var config Config

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(encoded, &config); err != nil {
		return nil, fmt.Errorf("malformed delay config: %w", err)
	}

	duration, err := parseDuration(config.Duration)
	if err != nil {
		return nil, err
	}

	return &DelayNode{id: id, duration: duration, scheduler: scheduler}, nil
}

func parseDuration(value any) (time.Duration, error) {
	switch v := value.(type) {
	case string:
		duration, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("delay node duration %q: %w", v, err)
		}

		if duration <= 0 {
			return 0, errors.New("delay node duration must be positive")
		}

		return duration, nil
	case float64:
		if v <= 0 {
			return 0, errors.New("delay node duration must be positive")
		}

		return time.Duration(v * float64(time.Second)), nil
	case nil:
		return 0, errors.New("delay node requires a duration")
	default:
		return 0, fmt.Errorf("delay node duration has unsupported type %T", value)
	}
}

func (n *DelayNode) ID() string            { return n.id }
func (n *DelayNode) Kind() models.NodeKind { return models.NodeKindDelay }

// Execute hands the continuation to the scheduler and pauses. The execution
// resumes when the continuation message is delivered, not here.
func (n *DelayNode) Execute(ctx context.Context, ectx models.ExecutionContext) (*models.NodeOutcome, error) {
	if err := n.scheduler.ScheduleContinuation(ctx, ectx.ExecutionID, n.id, n.duration); err != nil {
		return models.FailureOutcome(fmt.Sprintf("scheduling delay continuation: %s", err)), nil
	}

	resumeAt := time.Now().UTC().Add(n.duration)

	return &models.NodeOutcome{
		Success:        true,
		PauseExecution: true,
		Variables: map[string]any{
			"delay_resume_at": resumeAt.Format(time.RFC3339),
		},
	}, nil
}
