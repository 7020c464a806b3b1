// Package services provides the business operations over workflows,
// templates, and their satellites.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrEmptyOwner           = errors.New("owner cannot be empty")
	ErrInvalidStatus        = errors.New("invalid workflow status")

	// Business logic conflicts (409 Conflict).
	ErrNotDraft         = errors.New("graph changes require a draft workflow")
	ErrInvalidLifecycle = errors.New("workflow status does not permit this transition")
	ErrTemplateInactive = errors.New("template is not active")
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrEmptyOwner) ||
		errors.Is(err, ErrInvalidStatus)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrNotDraft) ||
		errors.Is(err, ErrInvalidLifecycle) ||
		errors.Is(err, ErrTemplateInactive)
}

// NewValidationError creates a validation error with operation context.
func NewValidationError(op, message string, err error) *ServiceError {
	return &ServiceError{Op: op, Message: message, Err: err}
}
