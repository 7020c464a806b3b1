// Package engine owns the execution state machine: it triggers runs,
// dispatches node work units, applies node outcomes, and advances or halts
// graph traversal.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/stepflow-io/stepflow/pkg/dispatch"
	"github.com/stepflow-io/stepflow/pkg/graph"
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/otelhelper"
	"github.com/stepflow-io/stepflow/pkg/persistence"
	"github.com/stepflow-io/stepflow/pkg/registry"
)

// Coordinator drives workflow executions through their state machine.
//
// It is the single writer of WorkflowExecution records. Work arrives through
// at-least-once dispatch, so every handler absorbs duplicate deliveries by
// checking the stored status and current node before acting.
type Coordinator struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	dispatcher  dispatch.Dispatcher
	tracer      trace.Tracer
}

func NewCoordinator(
	logger *slog.Logger,
	store persistence.Persistence,
	reg *registry.Registry,
	dispatcher dispatch.Dispatcher,
	tracer trace.Tracer,
) *Coordinator {
	return &Coordinator{
		logger:      logger.With("module", "engine"),
		persistence: store,
		registry:    reg,
		dispatcher:  dispatcher,
		tracer:      tracer,
	}
}

// RegisterHandlers binds the coordinator to its work queue message types.
func (c *Coordinator) RegisterHandlers() error {
	if err := c.dispatcher.Handle(dispatch.WorkflowTriggerMessage, c.handleWorkflowTrigger); err != nil {
		return err
	}

	if err := c.dispatcher.Handle(dispatch.NodeActivationMessage, c.handleNodeActivation); err != nil {
		return err
	}

	return c.dispatcher.Handle(dispatch.DelayContinuationMessage, c.handleDelayContinuation)
}

// Trigger starts a new execution of an active workflow. The execution is
// created pending, moved to running, and its start node is handed to the
// work queue. Returns WorkflowNotActiveError when the workflow does not
// accept triggers.
func (c *Coordinator) Trigger(ctx context.Context, workflowID, triggeredBy string, subject models.Subject, payload map[string]any) (*models.WorkflowExecution, error) {
	ctx, span := c.startSpan(ctx, "engine.trigger", attribute.String(otelhelper.WorkflowIDKey, workflowID))
	defer span.End()

	workflow, err := c.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("fetching workflow %s: %w", workflowID, err)
	}

	if !workflow.IsActive() {
		return nil, &WorkflowNotActiveError{WorkflowID: workflowID, Status: workflow.Status}
	}

	start := workflow.StartNode()
	if start == nil {
		return nil, fmt.Errorf("workflow %s has no start node", workflowID)
	}

	now := time.Now().UTC()
	execution := &models.WorkflowExecution{
		ID:             uuid.New().String(),
		WorkflowID:     workflowID,
		Status:         models.ExecutionStatusPending,
		TriggeredBy:    triggeredBy,
		Subject:        subject,
		TriggerPayload: payload,
		Variables:      models.MergeVariables(workflow.Variables, payload),
		StartedAt:      now,
	}

	if err := c.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("creating execution: %w", err)
	}

	c.appendLog(ctx, execution.ID, "", models.LogLevelInfo, "Execution created", map[string]any{
		"workflow_id":  workflowID,
		"triggered_by": triggeredBy,
		"variables":    execution.VariablesSnapshot(),
	})

	execution.Status = models.ExecutionStatusRunning
	execution.CurrentNodeID = start.ID

	if err := c.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("starting execution %s: %w", execution.ID, err)
	}

	if err := c.dispatchNode(ctx, execution.ID, start.ID); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	c.logger.InfoContext(ctx, "Execution triggered",
		"workflow_id", workflowID, "execution_id", execution.ID, "triggered_by", triggeredBy)

	return execution, nil
}

// ExecuteNode runs one node of one execution and applies its outcome. It is
// the unit of work delivered by the queue and must tolerate redelivery: a
// stale or duplicate activation is absorbed without effect.
func (c *Coordinator) ExecuteNode(ctx context.Context, executionID, nodeID string) error {
	ctx, span := c.startSpan(ctx, "engine.execute_node",
		attribute.String(otelhelper.ExecutionIDKey, executionID),
		attribute.String(otelhelper.NodeIDKey, nodeID))
	defer span.End()

	execution, err := c.persistence.ExecutionRepository().GetByID(ctx, executionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("fetching execution %s: %w", executionID, err)
	}

	if execution.IsTerminal() {
		c.logger.DebugContext(ctx, "Ignoring activation for terminal execution",
			"execution_id", executionID, "node_id", nodeID, "status", execution.Status)

		return nil
	}

	if execution.Status != models.ExecutionStatusRunning || execution.CurrentNodeID != nodeID {
		c.logger.DebugContext(ctx, "Ignoring stale node activation",
			"execution_id", executionID, "node_id", nodeID,
			"status", execution.Status, "current_node_id", execution.CurrentNodeID)

		return nil
	}

	workflow, err := c.persistence.WorkflowRepository().GetByID(ctx, execution.WorkflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("fetching workflow %s: %w", execution.WorkflowID, err)
	}

	node := workflow.NodeByID(nodeID)
	if node == nil {
		return c.failExecution(ctx, execution, nodeID,
			fmt.Sprintf("node %s not found in workflow %s", nodeID, workflow.ID))
	}

	span.SetAttributes(attribute.String(otelhelper.NodeKindKey, string(node.Kind)))

	executor, err := c.registry.Create(node)
	if err != nil {
		return c.failExecution(ctx, execution, nodeID,
			fmt.Sprintf("creating executor for node %s: %s", nodeID, err))
	}

	outcome, err := executor.Execute(ctx, models.ExecutionContext{
		ExecutionID:    execution.ID,
		WorkflowID:     execution.WorkflowID,
		TriggerPayload: execution.TriggerPayload,
		Variables:      execution.VariablesSnapshot(),
	})
	if err != nil {
		return c.failExecution(ctx, execution, nodeID,
			fmt.Sprintf("executing node %s: %s", nodeID, err))
	}

	return c.applyOutcome(ctx, execution, workflow, node, outcome)
}

// applyOutcome persists the outcome of one node and decides what happens
// next: fail, pause, complete, or advance to the next node.
//
// The execution was fetched before the node ran, so a cancel may have landed
// in the meantime. Terminal states are immutable: the stored record is
// checked again before any write and an outcome that lost the race is
// discarded.
func (c *Coordinator) applyOutcome(ctx context.Context, execution *models.WorkflowExecution, workflow *models.Workflow, node *models.WorkflowNode, outcome *models.NodeOutcome) error {
	superseded, err := c.outcomeSuperseded(ctx, execution.ID, node.ID)
	if err != nil {
		return err
	}

	if superseded {
		return nil
	}

	if !outcome.Success {
		return c.failExecution(ctx, execution, node.ID, outcome.Error)
	}

	snapshot := execution.ApplyVariables(outcome.Variables)

	c.appendLog(ctx, execution.ID, node.ID, models.LogLevelInfo, "Node completed", map[string]any{
		"node_kind": string(node.Kind),
		"variables": snapshot,
	})

	switch {
	case outcome.EndExecution:
		return c.completeExecution(ctx, execution, node.ID)
	case outcome.PauseExecution:
		superseded, err := c.outcomeSuperseded(ctx, execution.ID, node.ID)
		if err != nil {
			return err
		}

		if superseded {
			return nil
		}

		execution.Status = models.ExecutionStatusPaused

		if err := c.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
			return fmt.Errorf("pausing execution %s: %w", execution.ID, err)
		}

		c.appendLog(ctx, execution.ID, node.ID, models.LogLevelInfo, "Execution paused", nil)
		c.logger.InfoContext(ctx, "Execution paused",
			"execution_id", execution.ID, "node_id", node.ID, "node_kind", node.Kind)

		return nil
	default:
		return c.advance(ctx, execution, workflow, node.ID)
	}
}

// AdvanceAfterNode resumes a paused execution past the given node with a
// synthetic successful outcome. Approval responses and delay continuations
// land here. A continuation for an execution that is not paused on that node
// is a duplicate delivery and is absorbed.
func (c *Coordinator) AdvanceAfterNode(ctx context.Context, executionID, nodeID string, variables map[string]any) error {
	ctx, span := c.startSpan(ctx, "engine.advance_after_node",
		attribute.String(otelhelper.ExecutionIDKey, executionID),
		attribute.String(otelhelper.NodeIDKey, nodeID))
	defer span.End()

	execution, err := c.persistence.ExecutionRepository().GetByID(ctx, executionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("fetching execution %s: %w", executionID, err)
	}

	if execution.Status != models.ExecutionStatusPaused || execution.CurrentNodeID != nodeID {
		c.logger.DebugContext(ctx, "Ignoring stale continuation",
			"execution_id", executionID, "node_id", nodeID,
			"status", execution.Status, "current_node_id", execution.CurrentNodeID)

		return nil
	}

	workflow, err := c.persistence.WorkflowRepository().GetByID(ctx, execution.WorkflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("fetching workflow %s: %w", execution.WorkflowID, err)
	}

	execution.Status = models.ExecutionStatusRunning
	snapshot := execution.ApplyVariables(variables)

	c.appendLog(ctx, execution.ID, nodeID, models.LogLevelInfo, "Execution resumed", map[string]any{
		"variables": snapshot,
	})

	return c.advance(ctx, execution, workflow, nodeID)
}

// FailFromNode fails a paused execution in response to an external decision,
// such as an approval rejection.
func (c *Coordinator) FailFromNode(ctx context.Context, executionID, nodeID, reason string) error {
	execution, err := c.persistence.ExecutionRepository().GetByID(ctx, executionID)
	if err != nil {
		return fmt.Errorf("fetching execution %s: %w", executionID, err)
	}

	if execution.IsTerminal() {
		return &InvalidTransitionError{ExecutionID: executionID, From: execution.Status, Operation: "fail"}
	}

	return c.failExecution(ctx, execution, nodeID, reason)
}

// Cancel aborts an execution. Permitted only from pending, running, or
// paused.
func (c *Coordinator) Cancel(ctx context.Context, executionID, cancelledBy string) error {
	execution, err := c.persistence.ExecutionRepository().GetByID(ctx, executionID)
	if err != nil {
		return fmt.Errorf("fetching execution %s: %w", executionID, err)
	}

	if execution.IsTerminal() {
		return &InvalidTransitionError{ExecutionID: executionID, From: execution.Status, Operation: "cancel"}
	}

	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCancelled
	execution.CompletedAt = &now

	if err := c.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		return fmt.Errorf("cancelling execution %s: %w", executionID, err)
	}

	c.appendLog(ctx, execution.ID, execution.CurrentNodeID, models.LogLevelWarn, "Execution cancelled", map[string]any{
		"cancelled_by": cancelledBy,
	})
	c.recordMetrics(ctx, execution)
	c.logger.InfoContext(ctx, "Execution cancelled",
		"execution_id", executionID, "cancelled_by", cancelledBy)

	return nil
}

// Retry creates a brand-new execution of a failed run with the same trigger
// payload. The failed execution itself is never mutated.
func (c *Coordinator) Retry(ctx context.Context, executionID, triggeredBy string) (*models.WorkflowExecution, error) {
	execution, err := c.persistence.ExecutionRepository().GetByID(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("fetching execution %s: %w", executionID, err)
	}

	if execution.Status != models.ExecutionStatusFailed {
		return nil, &InvalidTransitionError{ExecutionID: executionID, From: execution.Status, Operation: "retry"}
	}

	retried, err := c.Trigger(ctx, execution.WorkflowID, triggeredBy, execution.Subject, execution.TriggerPayload)
	if err != nil {
		return nil, err
	}

	c.appendLog(ctx, retried.ID, "", models.LogLevelInfo, "Execution retried from failed run", map[string]any{
		"original_execution_id": executionID,
	})

	return retried, nil
}

// advance moves traversal past nodeID following the first matching outgoing
// connection. A dead end (no outgoing connection applies) completes the
// execution with a warning instead of wedging it in running forever.
func (c *Coordinator) advance(ctx context.Context, execution *models.WorkflowExecution, workflow *models.Workflow, nodeID string) error {
	superseded, err := c.outcomeSuperseded(ctx, execution.ID, nodeID)
	if err != nil {
		return err
	}

	if superseded {
		return nil
	}

	next := graph.NextNode(workflow, nodeID, execution.Variables)
	if next == nil {
		c.appendLog(ctx, execution.ID, nodeID, models.LogLevelWarn, "Traversal reached a dead end, completing execution", nil)

		return c.completeExecution(ctx, execution, nodeID)
	}

	execution.Status = models.ExecutionStatusRunning
	execution.CurrentNodeID = next.ID

	if err := c.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		return fmt.Errorf("advancing execution %s: %w", execution.ID, err)
	}

	return c.dispatchNode(ctx, execution.ID, next.ID)
}

func (c *Coordinator) completeExecution(ctx context.Context, execution *models.WorkflowExecution, nodeID string) error {
	superseded, err := c.outcomeSuperseded(ctx, execution.ID, nodeID)
	if err != nil {
		return err
	}

	if superseded {
		return nil
	}

	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.CompletedAt = &now

	if err := c.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		return fmt.Errorf("completing execution %s: %w", execution.ID, err)
	}

	c.appendLog(ctx, execution.ID, nodeID, models.LogLevelInfo, "Execution completed", map[string]any{
		"variables": execution.VariablesSnapshot(),
	})
	c.recordMetrics(ctx, execution)
	c.logger.InfoContext(ctx, "Execution completed",
		"execution_id", execution.ID, "workflow_id", execution.WorkflowID)

	return nil
}

func (c *Coordinator) failExecution(ctx context.Context, execution *models.WorkflowExecution, nodeID, reason string) error {
	superseded, err := c.outcomeSuperseded(ctx, execution.ID, nodeID)
	if err != nil {
		return err
	}

	if superseded {
		return nil
	}

	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusFailed
	execution.Error = reason
	execution.CompletedAt = &now

	if err := c.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		return fmt.Errorf("failing execution %s: %w", execution.ID, err)
	}

	c.appendLog(ctx, execution.ID, nodeID, models.LogLevelError, "Execution failed", map[string]any{
		"error": reason,
	})
	c.recordMetrics(ctx, execution)
	c.logger.WarnContext(ctx, "Execution failed",
		"execution_id", execution.ID, "node_id", nodeID, "error", reason)

	return nil
}

// outcomeSuperseded re-fetches the stored execution and reports whether it
// reached a terminal status since it was loaded. Cancellation can land at
// any point while a node is in flight, so every write of node-driven state
// checks the store first and drops the result when the race was lost.
func (c *Coordinator) outcomeSuperseded(ctx context.Context, executionID, nodeID string) (bool, error) {
	stored, err := c.persistence.ExecutionRepository().GetByID(ctx, executionID)
	if err != nil {
		return false, fmt.Errorf("re-fetching execution %s: %w", executionID, err)
	}

	if !stored.IsTerminal() {
		return false, nil
	}

	c.logger.DebugContext(ctx, "Discarding in-flight result for terminal execution",
		"execution_id", executionID, "node_id", nodeID, "status", stored.Status)

	return true, nil
}

func (c *Coordinator) dispatchNode(ctx context.Context, executionID, nodeID string) error {
	msg := dispatch.NodeActivation{
		BaseMessage: dispatch.BaseMessage{
			ID:        c.dispatcher.GenerateID(),
			Timestamp: time.Now().UTC(),
		},
		ExecutionID: executionID,
		NodeID:      nodeID,
	}

	if err := c.dispatcher.Publish(ctx, executionID, msg); err != nil {
		return fmt.Errorf("dispatching node %s of execution %s: %w", nodeID, executionID, err)
	}

	return nil
}

// appendLog writes one audit entry. Log persistence failures are reported
// but never fail the execution step that produced them.
func (c *Coordinator) appendLog(ctx context.Context, executionID, nodeID string, level models.LogLevel, message string, data map[string]any) {
	entry := &models.ExecutionLogEntry{
		ID:          uuid.New().String(),
		ExecutionID: executionID,
		NodeID:      nodeID,
		Level:       level,
		Message:     message,
		Data:        data,
		Timestamp:   time.Now().UTC(),
	}

	if err := c.persistence.ExecutionLogRepository().Append(ctx, entry); err != nil {
		c.logger.ErrorContext(ctx, "Failed to append execution log entry",
			"execution_id", executionID, "error", err)
	}
}

func (c *Coordinator) recordMetrics(ctx context.Context, execution *models.WorkflowExecution) {
	completed := time.Now().UTC()
	if execution.CompletedAt != nil {
		completed = *execution.CompletedAt
	}

	durationMs := completed.Sub(execution.StartedAt).Milliseconds()

	err := c.persistence.MetricsRepository().Record(ctx, execution.WorkflowID, completed, execution.Status, durationMs)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to record execution metrics",
			"execution_id", execution.ID, "error", err)
	}
}

func (c *Coordinator) handleWorkflowTrigger(ctx context.Context, msg any) error {
	trigger, ok := msg.(*dispatch.WorkflowTrigger)
	if !ok {
		c.logger.ErrorContext(ctx, "Invalid message type for workflow trigger")

		return nil
	}

	_, err := c.Trigger(ctx, trigger.WorkflowID, trigger.TriggeredBy, trigger.Subject, trigger.Payload)
	if err != nil {
		var notActive *WorkflowNotActiveError
		if errors.As(err, &notActive) {
			c.logger.WarnContext(ctx, "Dropping trigger for inactive workflow",
				"workflow_id", trigger.WorkflowID, "status", notActive.Status)

			return nil
		}

		return err
	}

	return nil
}

func (c *Coordinator) handleNodeActivation(ctx context.Context, msg any) error {
	activation, ok := msg.(*dispatch.NodeActivation)
	if !ok {
		c.logger.ErrorContext(ctx, "Invalid message type for node activation")

		return nil
	}

	return c.ExecuteNode(ctx, activation.ExecutionID, activation.NodeID)
}

func (c *Coordinator) handleDelayContinuation(ctx context.Context, msg any) error {
	continuation, ok := msg.(*dispatch.DelayContinuation)
	if !ok {
		c.logger.ErrorContext(ctx, "Invalid message type for delay continuation")

		return nil
	}

	return c.AdvanceAfterNode(ctx, continuation.ExecutionID, continuation.NodeID, nil)
}

func (c *Coordinator) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if c.tracer == nil {
		return noop.NewTracerProvider().Tracer("engine").Start(ctx, name)
	}

	return otelhelper.StartSpan(ctx, c.tracer, name, attrs...)
}
