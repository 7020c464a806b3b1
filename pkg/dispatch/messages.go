// Package dispatch provides the durable, at-least-once work queue that
// decouples "node N should run next" from the caller.
package dispatch

import (
	"time"

	"github.com/stepflow-io/stepflow/pkg/models"
)

// MessageType discriminates dispatched work units.
type MessageType string

const (
	// Topic carries all engine work units.
	Topic = "stepflow.dispatch"

	MessageKeyMetadata  = "key"
	MessageTypeMetadata = "message_type"
)

const (
	WorkflowTriggerMessage   MessageType = "workflow.trigger"
	NodeActivationMessage    MessageType = "node.activation"
	DelayContinuationMessage MessageType = "delay.continuation"
)

// Message is one unit of asynchronous work. Delivery is at-least-once, so
// every handler must be safe to run twice for the same message.
type Message interface {
	GetType() MessageType
}

// BaseMessage carries the fields common to all work units.
type BaseMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// WorkflowTrigger asks the engine to start a new execution of a workflow.
type WorkflowTrigger struct {
	BaseMessage

	WorkflowID  string         `json:"workflow_id"`
	TriggeredBy string         `json:"triggered_by"`
	Subject     models.Subject `json:"subject,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

func (m WorkflowTrigger) GetType() MessageType {
	return WorkflowTriggerMessage
}

// NodeActivation asks a worker to execute one node of one execution.
type NodeActivation struct {
	BaseMessage

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
}

func (m NodeActivation) GetType() MessageType {
	return NodeActivationMessage
}

// DelayContinuation resumes an execution paused on a delay node once the
// configured duration has elapsed.
type DelayContinuation struct {
	BaseMessage

	ExecutionID string    `json:"execution_id"`
	NodeID      string    `json:"node_id"`
	ResumeAt    time.Time `json:"resume_at"`
}

func (m DelayContinuation) GetType() MessageType {
	return DelayContinuationMessage
}
