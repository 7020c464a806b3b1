package models

import (
	"maps"
	"time"
)

// ExecutionStatus represents the state-machine state of one workflow run.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusPaused    ExecutionStatus = "paused"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// TerminalStatuses are final; no transition leaves them.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusCancelled
}

// Subject identifies whatever object triggered an execution, without a
// polymorphic back-reference. Callers that need the subject resolve it
// through their own lookup.
type Subject struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
}

// WorkflowExecution is one run of a workflow. It is mutated only by the
// execution coordinator; CurrentNodeID is a single-writer field.
type WorkflowExecution struct {
	ID             string          `json:"id"`
	WorkflowID     string          `json:"workflow_id"`
	Status         ExecutionStatus `json:"status"`
	TriggeredBy    string          `json:"triggered_by"`
	Subject        Subject         `json:"subject,omitempty"`
	TriggerPayload map[string]any  `json:"trigger_payload,omitempty"`
	Variables      map[string]any  `json:"variables,omitempty"`
	CurrentNodeID  string          `json:"current_node_id,omitempty"`
	Error          string          `json:"error,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the execution reached a final state.
func (e *WorkflowExecution) IsTerminal() bool {
	return e.Status.IsTerminal()
}

// ApplyVariables merges an update into the variable map by replacing the map
// with a fresh merged snapshot. Later keys overwrite earlier ones; the map
// never shrinks implicitly. Returning a snapshot per step keeps "variables at
// time of entry" reconstructable for the log.
func (e *WorkflowExecution) ApplyVariables(update map[string]any) map[string]any {
	merged := make(map[string]any, len(e.Variables)+len(update))
	maps.Copy(merged, e.Variables)
	maps.Copy(merged, update)
	e.Variables = merged

	return merged
}

// VariablesSnapshot returns a shallow copy of the current variable map.
func (e *WorkflowExecution) VariablesSnapshot() map[string]any {
	snapshot := make(map[string]any, len(e.Variables))
	maps.Copy(snapshot, e.Variables)

	return snapshot
}

// MergeVariables builds the initial variable map for a new execution:
// trigger payload entries overwrite workflow defaults.
func MergeVariables(defaults, payload map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(payload))
	maps.Copy(merged, defaults)
	maps.Copy(merged, payload)

	return merged
}
