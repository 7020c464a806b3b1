package models

// ExecutionContext is the read-only view of an execution handed to node
// executors. Executors derive new variables through their outcome; they
// never mutate the execution directly.
type ExecutionContext struct {
	ExecutionID    string         `json:"execution_id"`
	WorkflowID     string         `json:"workflow_id"`
	TriggerPayload map[string]any `json:"trigger_payload,omitempty"`
	Variables      map[string]any `json:"variables,omitempty"`
}
