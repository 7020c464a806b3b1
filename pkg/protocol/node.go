// Package protocol defines the contracts between the execution engine and
// pluggable node executors.
package protocol

import (
	"context"
	"time"

	"github.com/stepflow-io/stepflow/pkg/models"
)

// Node performs the side effect of one workflow step and reports a uniform
// outcome. A node either continues traversal, pauses the execution (approval
// and delay kinds), ends it, or fails it. Everything except an explicit
// pause must complete synchronously within one dispatched unit of work.
type Node interface {
	ID() string
	Kind() models.NodeKind
	Execute(ctx context.Context, ectx models.ExecutionContext) (*models.NodeOutcome, error)
}

// NodeFactory builds executors for one node kind from the raw node config.
// Create decodes the config into the kind's typed shape and fails on
// malformed documents, so activation-time validation catches config errors
// before any execution runs.
type NodeFactory interface {
	Kind() models.NodeKind
	Schema() map[string]any
	Create(node *models.WorkflowNode) (Node, error)
}

// DelayScheduler arranges a future continuation for a delay node without
// blocking a worker. Implementations must tolerate the continuation being
// delivered more than once.
type DelayScheduler interface {
	ScheduleContinuation(ctx context.Context, executionID, nodeID string, duration time.Duration) error
}

// TriggerCallback is invoked by inbound trigger adapters (queue consumers,
// schedule pollers, webhooks) to start an execution.
type TriggerCallback func(ctx context.Context, workflowID, triggeredBy string, subject models.Subject, payload map[string]any) error
