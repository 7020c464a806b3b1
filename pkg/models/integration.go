package models

import "time"

// IntegrationType classifies external endpoints referenced by integration
// nodes.
type IntegrationType string

const (
	IntegrationTypeAPI     IntegrationType = "api"
	IntegrationTypeWebhook IntegrationType = "webhook"
	IntegrationTypeEmail   IntegrationType = "email"
	IntegrationTypeSMS     IntegrationType = "sms"
)

// WorkflowIntegration describes an external endpoint. Workflows reference it
// by id only; the descriptor is managed independently of any workflow.
type WorkflowIntegration struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"     validate:"required"`
	Type      IntegrationType   `json:"type"     validate:"required"`
	BaseURL   string            `json:"base_url" validate:"required,url"`
	AuthType  string            `json:"auth_type,omitempty"` // none, bearer, basic, header
	AuthToken string            `json:"auth_token,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Config    map[string]any    `json:"config,omitempty"`
	Active    bool              `json:"active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
