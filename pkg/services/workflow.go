package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stepflow-io/stepflow/pkg/graph"
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
	"github.com/stepflow-io/stepflow/pkg/registry"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow handles workflow lifecycle operations: CRUD, atomic graph
// replacement, and status transitions. Activation is the only path to the
// active status and always revalidates the graph.
type Workflow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, registry *registry.Registry) *Workflow {
	return &Workflow{
		persistence: persistence,
		registry:    registry,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// CreateWorkflowRequest carries the fields for creating a draft workflow.
type CreateWorkflowRequest struct {
	Name          string         `validate:"required,min=3"`
	Description   string
	TriggerType   models.TriggerType
	TriggerConfig map[string]any
	Variables     map[string]any
	Settings      map[string]any
	Owner         string `validate:"required"`
}

// Create builds a new workflow in draft status with an empty graph.
func (w *Workflow) Create(ctx context.Context, req CreateWorkflowRequest) (*models.Workflow, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, ErrWorkflowNameRequired
	}

	if strings.TrimSpace(req.Owner) == "" {
		return nil, ErrEmptyOwner
	}

	triggerType := req.TriggerType
	if triggerType == "" {
		triggerType = models.TriggerTypeManual
	}

	now := time.Now().UTC()
	workflow := &models.Workflow{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Description:   req.Description,
		Status:        models.WorkflowStatusDraft,
		TriggerType:   triggerType,
		TriggerConfig: req.TriggerConfig,
		Variables:     req.Variables,
		Settings:      req.Settings,
		Owner:         req.Owner,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("saving workflow: %w", err)
	}

	return workflow, nil
}

// ListWorkflowsRequest contains options for listing workflows.
type ListWorkflowsRequest struct {
	Limit  int
	Offset int
	Owner  string
	Status *models.WorkflowStatus
}

// List retrieves workflows with filtering and pagination.
func (w *Workflow) List(ctx context.Context, req ListWorkflowsRequest) (*persistence.ListWorkflowsResult, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	result, err := w.persistence.WorkflowRepository().ListWorkflows(ctx, persistence.ListWorkflowsOptions{
		Limit:  req.Limit,
		Offset: req.Offset,
		Owner:  req.Owner,
		Status: req.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("listing workflows: %w", err)
	}

	return result, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

// UpdateWorkflowRequest carries the mutable metadata of a workflow. Graph
// changes go through ReplaceGraph, status changes through the transition
// operations.
type UpdateWorkflowRequest struct {
	Name          *string
	Description   *string
	TriggerType   *models.TriggerType
	TriggerConfig map[string]any
	Variables     map[string]any
	Settings      map[string]any
}

// Update modifies workflow metadata.
func (w *Workflow) Update(ctx context.Context, id string, req UpdateWorkflowRequest) (*models.Workflow, error) {
	workflow, err := w.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrWorkflowNameRequired
		}

		workflow.Name = name
	}

	if req.Description != nil {
		workflow.Description = *req.Description
	}

	if req.TriggerType != nil {
		workflow.TriggerType = *req.TriggerType
	}

	if req.TriggerConfig != nil {
		workflow.TriggerConfig = req.TriggerConfig
	}

	if req.Variables != nil {
		workflow.Variables = req.Variables
	}

	if req.Settings != nil {
		workflow.Settings = req.Settings
	}

	workflow.UpdatedAt = time.Now().UTC()

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("saving workflow %s: %w", id, err)
	}

	return workflow, nil
}

// ReplaceGraph atomically swaps the entire node/connection set of a draft
// workflow. Active graphs are immutable; there is no partial graph edit.
func (w *Workflow) ReplaceGraph(ctx context.Context, id string, nodes []*models.WorkflowNode, connections []*models.WorkflowConnection) (*models.Workflow, error) {
	workflow, err := w.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow.Status != models.WorkflowStatusDraft {
		return nil, &ServiceError{Op: "ReplaceGraph", Message: fmt.Sprintf("workflow is %s", workflow.Status), Err: ErrNotDraft}
	}

	workflow.Nodes = nodes
	workflow.Connections = connections
	workflow.UpdatedAt = time.Now().UTC()

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("saving workflow %s: %w", id, err)
	}

	return workflow, nil
}

// Activate validates the graph and the per-node configs, then moves the
// workflow to active. A workflow never reaches active without a valid graph.
func (w *Workflow) Activate(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := w.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow.Status != models.WorkflowStatusDraft && workflow.Status != models.WorkflowStatusPaused {
		return nil, &ServiceError{Op: "Activate", Message: fmt.Sprintf("workflow is %s", workflow.Status), Err: ErrInvalidLifecycle}
	}

	result := graph.Validate(workflow.Nodes, workflow.Connections)

	errs := result.Errors
	if w.registry != nil {
		errs = append(errs, w.registry.ValidateConfigs(workflow)...)
	}

	if len(errs) > 0 {
		return nil, &graph.InvalidGraphError{WorkflowID: id, Errors: errs}
	}

	now := time.Now().UTC()
	workflow.Status = models.WorkflowStatusActive
	workflow.ActivatedAt = &now
	workflow.UpdatedAt = now

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("saving workflow %s: %w", id, err)
	}

	return workflow, nil
}

// Pause stops an active workflow from accepting new triggers. Running
// executions are unaffected.
func (w *Workflow) Pause(ctx context.Context, id string) (*models.Workflow, error) {
	return w.transition(ctx, "Pause", id, models.WorkflowStatusPaused, models.WorkflowStatusActive)
}

// Archive retires a workflow. Archived workflows are historical and cannot
// be revived.
func (w *Workflow) Archive(ctx context.Context, id string) (*models.Workflow, error) {
	return w.transition(ctx, "Archive", id, models.WorkflowStatusArchived,
		models.WorkflowStatusDraft, models.WorkflowStatusActive, models.WorkflowStatusPaused)
}

func (w *Workflow) transition(ctx context.Context, op, id string, to models.WorkflowStatus, from ...models.WorkflowStatus) (*models.Workflow, error) {
	workflow, err := w.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	permitted := false

	for _, s := range from {
		if workflow.Status == s {
			permitted = true

			break
		}
	}

	if !permitted {
		return nil, &ServiceError{Op: op, Message: fmt.Sprintf("workflow is %s", workflow.Status), Err: ErrInvalidLifecycle}
	}

	workflow.Status = to
	workflow.UpdatedAt = time.Now().UTC()

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("saving workflow %s: %w", id, err)
	}

	return workflow, nil
}

// Delete removes a workflow. Drafts only; anything else must be archived
// instead so execution history keeps a referent.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	workflow, err := w.FetchByID(ctx, id)
	if err != nil {
		return err
	}

	if workflow.Status != models.WorkflowStatusDraft {
		return &ServiceError{Op: "Delete", Message: fmt.Sprintf("workflow is %s", workflow.Status), Err: ErrInvalidLifecycle}
	}

	return w.persistence.WorkflowRepository().Delete(ctx, id)
}

// Metrics returns the per-day execution rollups of one workflow.
func (w *Workflow) Metrics(ctx context.Context, id string, from, to time.Time) ([]*models.WorkflowMetrics, error) {
	if _, err := w.FetchByID(ctx, id); err != nil {
		return nil, err
	}

	return w.persistence.MetricsRepository().ListByWorkflow(ctx, id, from, to)
}
