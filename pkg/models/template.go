package models

import "time"

// WorkflowTemplate is a reusable graph blueprint. Templates are immutable
// once referenced by a live workflow; changes are published as a new version
// that supersedes the old one.
type WorkflowTemplate struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"     validate:"required,min=3"`
	Category    string                `json:"category"`
	Version     int                   `json:"version"`
	Active      bool                  `json:"active"`
	Nodes       []*WorkflowNode       `json:"nodes"`
	Connections []*WorkflowConnection `json:"connections"`
	Variables   map[string]any        `json:"variables,omitempty"`
	CreatedBy   string                `json:"created_by"`
	CreatedAt   time.Time             `json:"created_at"`
}
