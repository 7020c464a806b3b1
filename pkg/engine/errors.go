package engine

import (
	"fmt"

	"github.com/stepflow-io/stepflow/pkg/models"
)

// WorkflowNotActiveError is returned when a trigger targets a workflow that
// is not in the active status.
type WorkflowNotActiveError struct {
	WorkflowID string
	Status     models.WorkflowStatus
}

func (e *WorkflowNotActiveError) Error() string {
	return fmt.Sprintf("workflow %s is not active (status %s)", e.WorkflowID, e.Status)
}

// InvalidTransitionError is returned when an operation would move an
// execution out of a state that does not permit it. Terminal states reject
// every transition.
type InvalidTransitionError struct {
	ExecutionID string
	From        models.ExecutionStatus
	Operation   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("execution %s: cannot %s from status %s", e.ExecutionID, e.Operation, e.From)
}

// PermissionError is returned when an identity other than the designated
// approver responds to an approval, or when the approval already left the
// pending state.
type PermissionError struct {
	ApprovalID string
	Responder  string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("approval %s: responder %s not permitted: %s", e.ApprovalID, e.Responder, e.Reason)
}
