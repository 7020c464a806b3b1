// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/stepflow-io/stepflow/pkg/models"

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name          string             `json:"name"           validate:"required,min=3"`
	Description   string             `json:"description"`
	TriggerType   models.TriggerType `json:"trigger_type"   validate:"omitempty,oneof=manual scheduled event webhook api"`
	TriggerConfig map[string]any     `json:"trigger_config,omitempty"`
	Variables     map[string]any     `json:"variables,omitempty"`
	Settings      map[string]any     `json:"settings,omitempty"`
	Owner         string             `json:"owner"          validate:"required"`
}

// UpdateWorkflowRequest represents the request body for updating workflow
// metadata. All fields are optional to support partial updates; graph and
// status changes have dedicated endpoints.
type UpdateWorkflowRequest struct {
	Name          *string             `json:"name,omitempty"         validate:"omitempty,min=3"`
	Description   *string             `json:"description,omitempty"`
	TriggerType   *models.TriggerType `json:"trigger_type,omitempty" validate:"omitempty,oneof=manual scheduled event webhook api"`
	TriggerConfig map[string]any      `json:"trigger_config,omitempty"`
	Variables     map[string]any      `json:"variables,omitempty"`
	Settings      map[string]any      `json:"settings,omitempty"`
}

// ReplaceGraphRequest carries the full replacement node/connection set.
type ReplaceGraphRequest struct {
	Nodes       []*models.WorkflowNode       `json:"nodes"       validate:"required,min=1,dive,required"`
	Connections []*models.WorkflowConnection `json:"connections" validate:"dive,required"`
}

// TriggerWorkflowRequest starts a new execution of an active workflow.
type TriggerWorkflowRequest struct {
	TriggeredBy string         `json:"triggered_by" validate:"required"`
	SubjectType string         `json:"subject_type,omitempty"`
	SubjectID   string         `json:"subject_id,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// CancelExecutionRequest identifies who aborts the execution.
type CancelExecutionRequest struct {
	CancelledBy string `json:"cancelled_by" validate:"required"`
}

// RetryExecutionRequest identifies who retries a failed execution.
type RetryExecutionRequest struct {
	TriggeredBy string `json:"triggered_by" validate:"required"`
}

// ApprovalResponseRequest carries a human decision on a pending approval.
type ApprovalResponseRequest struct {
	Responder    string         `json:"responder" validate:"required"`
	Comments     string         `json:"comments,omitempty"`
	ResponseData map[string]any `json:"response_data,omitempty"`
}

// PublishTemplateRequest publishes a new version of a workflow template.
type PublishTemplateRequest struct {
	Name        string                       `json:"name"     validate:"required,min=3"`
	Category    string                       `json:"category"`
	Nodes       []*models.WorkflowNode       `json:"nodes"       validate:"required,min=1,dive,required"`
	Connections []*models.WorkflowConnection `json:"connections" validate:"dive,required"`
	Variables   map[string]any               `json:"variables,omitempty"`
	CreatedBy   string                       `json:"created_by"  validate:"required"`
}

// InstantiateTemplateRequest creates a draft workflow from a template.
type InstantiateTemplateRequest struct {
	Name  string `json:"name,omitempty"`
	Owner string `json:"owner" validate:"required"`
}

// CreateScheduleRequest registers a recurring trigger for a workflow.
type CreateScheduleRequest struct {
	WorkflowID     string `json:"workflow_id"     validate:"required"`
	CronExpression string `json:"cron_expression" validate:"required"`
}

// UpdateScheduleRequest modifies an existing schedule.
type UpdateScheduleRequest struct {
	CronExpression *string `json:"cron_expression,omitempty"`
	Active         *bool   `json:"active,omitempty"`
}

// SaveIntegrationRequest creates or replaces an external integration.
type SaveIntegrationRequest struct {
	Name     string                 `json:"name"      validate:"required"`
	Type     models.IntegrationType `json:"type"      validate:"required,oneof=api webhook email sms"`
	BaseURL  string                 `json:"base_url"`
	AuthType string                 `json:"auth_type" validate:"omitempty,oneof=bearer basic header"`
	AuthToken string                `json:"auth_token,omitempty"`
	Headers  map[string]string      `json:"headers,omitempty"`
	Config   map[string]any         `json:"config,omitempty"`
	Active   bool                   `json:"active"`
}

// ValidateGraphRequest runs the structural validator without persisting
// anything.
type ValidateGraphRequest struct {
	Nodes       []*models.WorkflowNode       `json:"nodes"`
	Connections []*models.WorkflowConnection `json:"connections"`
}
