// Package persistence provides the storage abstraction for workflows,
// executions, and their satellites.
package persistence

import (
	"context"
	"time"

	"github.com/stepflow-io/stepflow/pkg/models"
)

// ListWorkflowsOptions control filtering and pagination of workflow listings.
type ListWorkflowsOptions struct {
	Limit  int
	Offset int
	Owner  string
	Status *models.WorkflowStatus
}

// ListWorkflowsResult carries a page of workflows plus paging metadata.
type ListWorkflowsResult struct {
	Workflows   []*models.Workflow
	TotalCount  int64
	HasNextPage bool
}

type WorkflowRepository interface {
	ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) (*ListWorkflowsResult, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

type TemplateRepository interface {
	List(ctx context.Context) ([]*models.WorkflowTemplate, error)
	GetByID(ctx context.Context, id string) (*models.WorkflowTemplate, error)
	// ActiveByName returns the active version of the named template.
	ActiveByName(ctx context.Context, name string) (*models.WorkflowTemplate, error)
	Save(ctx context.Context, template *models.WorkflowTemplate) error
}

type ExecutionRepository interface {
	GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	Save(ctx context.Context, execution *models.WorkflowExecution) error
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error)
}

type ExecutionLogRepository interface {
	// Append persists one write-once entry.
	Append(ctx context.Context, entry *models.ExecutionLogEntry) error
	// ListByExecution returns entries ordered by timestamp.
	ListByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLogEntry, error)
}

type ApprovalRepository interface {
	GetByID(ctx context.Context, id string) (*models.WorkflowApproval, error)
	Save(ctx context.Context, approval *models.WorkflowApproval) error
	ListByExecution(ctx context.Context, executionID string) ([]*models.WorkflowApproval, error)
	ListPendingByApprover(ctx context.Context, approverID string) ([]*models.WorkflowApproval, error)
}

type ScheduleRepository interface {
	List(ctx context.Context) ([]*models.WorkflowSchedule, error)
	GetByID(ctx context.Context, id string) (*models.WorkflowSchedule, error)
	Save(ctx context.Context, schedule *models.WorkflowSchedule) error
	Delete(ctx context.Context, id string) error
	// ListDue returns active schedules whose next run is at or before now.
	ListDue(ctx context.Context, now time.Time) ([]*models.WorkflowSchedule, error)
}

type IntegrationRepository interface {
	List(ctx context.Context) ([]*models.WorkflowIntegration, error)
	GetByID(ctx context.Context, id string) (*models.WorkflowIntegration, error)
	Save(ctx context.Context, integration *models.WorkflowIntegration) error
	Delete(ctx context.Context, id string) error
}

type MetricsRepository interface {
	// Record folds one terminal execution into the per-day rollup.
	Record(ctx context.Context, workflowID string, day time.Time, status models.ExecutionStatus, durationMs int64) error
	ListByWorkflow(ctx context.Context, workflowID string, from, to time.Time) ([]*models.WorkflowMetrics, error)
}

// Persistence bundles all repositories behind one connection-scoped handle.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	TemplateRepository() TemplateRepository
	ExecutionRepository() ExecutionRepository
	ExecutionLogRepository() ExecutionLogRepository
	ApprovalRepository() ApprovalRepository
	ScheduleRepository() ScheduleRepository
	IntegrationRepository() IntegrationRepository
	MetricsRepository() MetricsRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
