package models

import "time"

// ApprovalStatus represents the state of a human-decision request.
type ApprovalStatus string

const (
	ApprovalStatusPending   ApprovalStatus = "pending"
	ApprovalStatusApproved  ApprovalStatus = "approved"
	ApprovalStatusRejected  ApprovalStatus = "rejected"
	ApprovalStatusCancelled ApprovalStatus = "cancelled"
)

// WorkflowApproval is a pending human decision tied to one execution and one
// approval node. Only the designated approver may respond, and a responded
// approval is terminal.
type WorkflowApproval struct {
	ID           string         `json:"id"`
	ExecutionID  string         `json:"execution_id"`
	WorkflowID   string         `json:"workflow_id"`
	NodeID       string         `json:"node_id"`
	ApproverID   string         `json:"approver_id"`
	Status       ApprovalStatus `json:"status"`
	RequestData  map[string]any `json:"request_data,omitempty"`
	ResponseData map[string]any `json:"response_data,omitempty"`
	Comments     string         `json:"comments,omitempty"`
	RequestedAt  time.Time      `json:"requested_at"`
	RespondedAt  *time.Time     `json:"responded_at,omitempty"`
}

// IsPending reports whether the approval still awaits a response.
func (a *WorkflowApproval) IsPending() bool {
	return a.Status == ApprovalStatusPending
}
