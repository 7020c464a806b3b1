// Package models defines the core domain models for graph-based workflow automation.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, not executable
	WorkflowStatusActive   WorkflowStatus = "active"   // Validated, executable
	WorkflowStatusPaused   WorkflowStatus = "paused"   // Temporarily not accepting triggers
	WorkflowStatusArchived WorkflowStatus = "archived" // Historical, not executable
)

// TriggerType describes how executions of a workflow are started.
type TriggerType string

const (
	TriggerTypeManual    TriggerType = "manual"
	TriggerTypeScheduled TriggerType = "scheduled"
	TriggerTypeEvent     TriggerType = "event"
	TriggerTypeWebhook   TriggerType = "webhook"
	TriggerTypeAPI       TriggerType = "api"
)

// Workflow represents a concrete, activatable graph of nodes and connections.
//
// The graph is read-only once the workflow is active; concurrent executions
// only ever read it. Graph changes go through an atomic replace while the
// workflow is a draft.
type Workflow struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"           validate:"required,min=3"`
	Description   string                `json:"description"`
	Status        WorkflowStatus        `json:"status"         validate:"required"`
	TriggerType   TriggerType           `json:"trigger_type"`
	TriggerConfig map[string]any        `json:"trigger_config,omitempty"`
	TemplateID    string                `json:"template_id,omitempty"`
	Nodes         []*WorkflowNode       `json:"nodes"`
	Connections   []*WorkflowConnection `json:"connections"`
	Variables     map[string]any        `json:"variables,omitempty"`
	Settings      map[string]any        `json:"settings,omitempty"`
	Owner         string                `json:"owner"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ActivatedAt   *time.Time            `json:"activated_at,omitempty"`
	DeletedAt     *time.Time            `json:"deleted_at,omitempty"`
}

// IsActive reports whether the workflow accepts new executions.
func (w *Workflow) IsActive() bool {
	return w.Status == WorkflowStatusActive
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *WorkflowNode {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}

// StartNode returns the single start node of the graph, or nil when the
// graph has none. Validation guarantees exactly one on active workflows.
func (w *Workflow) StartNode() *WorkflowNode {
	for _, n := range w.Nodes {
		if n.Kind == NodeKindStart {
			return n
		}
	}

	return nil
}

// OutgoingConnections returns the connections leaving nodeID in declaration
// order. Declaration order is significant: traversal follows the first
// connection whose condition matches.
func (w *Workflow) OutgoingConnections(nodeID string) []*WorkflowConnection {
	var out []*WorkflowConnection

	for _, c := range w.Connections {
		if c.SourceID == nodeID {
			out = append(out, c)
		}
	}

	return out
}
