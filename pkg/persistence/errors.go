package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types all implementations return.
var (
	ErrWorkflowNotFound    = errors.New("workflow not found")
	ErrTemplateNotFound    = errors.New("workflow template not found")
	ErrExecutionNotFound   = errors.New("workflow execution not found")
	ErrApprovalNotFound    = errors.New("workflow approval not found")
	ErrScheduleNotFound    = errors.New("workflow schedule not found")
	ErrIntegrationNotFound = errors.New("workflow integration not found")
)

// StoreError wraps a storage failure with operation context.
type StoreError struct {
	Op       string // operation being performed ("GetByID", "Save", ...)
	Entity   string // entity type ("workflow", "execution", ...)
	EntityID string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Entity, e.EntityID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a storage error with context.
func NewStoreError(op, entity, entityID string, err error) *StoreError {
	return &StoreError{Op: op, Entity: entity, EntityID: entityID, Err: err}
}

func IsWorkflowNotFound(err error) bool    { return errors.Is(err, ErrWorkflowNotFound) }
func IsTemplateNotFound(err error) bool    { return errors.Is(err, ErrTemplateNotFound) }
func IsExecutionNotFound(err error) bool   { return errors.Is(err, ErrExecutionNotFound) }
func IsApprovalNotFound(err error) bool    { return errors.Is(err, ErrApprovalNotFound) }
func IsScheduleNotFound(err error) bool    { return errors.Is(err, ErrScheduleNotFound) }
func IsIntegrationNotFound(err error) bool { return errors.Is(err, ErrIntegrationNotFound) }

// IsNotFound reports whether err is any of the entity-not-found sentinels.
func IsNotFound(err error) bool {
	return IsWorkflowNotFound(err) ||
		IsTemplateNotFound(err) ||
		IsExecutionNotFound(err) ||
		IsApprovalNotFound(err) ||
		IsScheduleNotFound(err) ||
		IsIntegrationNotFound(err)
}
