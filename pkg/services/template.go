package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// ErrTemplateNotFound is returned when a template is not found.
var ErrTemplateNotFound = persistence.ErrTemplateNotFound

// Template handles template versioning and instantiation. Templates are
// never mutated in place: publishing changes creates a new version and
// deactivates the superseded one.
type Template struct {
	persistence persistence.Persistence
}

// NewTemplate creates a new template service.
func NewTemplate(persistence persistence.Persistence) *Template {
	return &Template{persistence: persistence}
}

// List returns all template versions.
func (t *Template) List(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	return t.persistence.TemplateRepository().List(ctx)
}

// FetchByID retrieves one template version by its ID.
func (t *Template) FetchByID(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	template, err := t.persistence.TemplateRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if template == nil {
		return nil, ErrTemplateNotFound
	}

	return template, nil
}

// PublishTemplateRequest carries the fields for publishing a template
// version.
type PublishTemplateRequest struct {
	Name        string `validate:"required,min=3"`
	Category    string
	Nodes       []*models.WorkflowNode
	Connections []*models.WorkflowConnection
	Variables   map[string]any
	CreatedBy   string
}

// Publish creates a new active version of the named template. The previous
// active version, if any, is deactivated but kept for workflows that still
// reference it.
func (t *Template) Publish(ctx context.Context, req PublishTemplateRequest) (*models.WorkflowTemplate, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, NewValidationError("Publish", "template name is required", ErrInvalidRequest)
	}

	repo := t.persistence.TemplateRepository()
	version := 1

	current, err := repo.ActiveByName(ctx, req.Name)

	switch {
	case err == nil:
		version = current.Version + 1
		current.Active = false

		if err := repo.Save(ctx, current); err != nil {
			return nil, fmt.Errorf("deactivating template %s: %w", current.ID, err)
		}
	case errors.Is(err, persistence.ErrTemplateNotFound):
		// first version
	default:
		return nil, fmt.Errorf("looking up template %q: %w", req.Name, err)
	}

	template := &models.WorkflowTemplate{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Category:    req.Category,
		Version:     version,
		Active:      true,
		Nodes:       req.Nodes,
		Connections: req.Connections,
		Variables:   req.Variables,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   time.Now().UTC(),
	}

	if err := repo.Save(ctx, template); err != nil {
		return nil, fmt.Errorf("saving template: %w", err)
	}

	return template, nil
}

// Instantiate creates a draft workflow from a template, copying its graph
// and variable defaults. The new workflow records the template it came from.
func (t *Template) Instantiate(ctx context.Context, templateID, name, owner string) (*models.Workflow, error) {
	template, err := t.FetchByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	if !template.Active {
		return nil, &ServiceError{Op: "Instantiate", Message: fmt.Sprintf("template %s version %d is superseded", template.Name, template.Version), Err: ErrTemplateInactive}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = template.Name
	}

	if strings.TrimSpace(owner) == "" {
		return nil, ErrEmptyOwner
	}

	now := time.Now().UTC()
	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        name,
		Status:      models.WorkflowStatusDraft,
		TriggerType: models.TriggerTypeManual,
		TemplateID:  template.ID,
		Nodes:       cloneNodes(template.Nodes),
		Connections: cloneConnections(template.Connections),
		Variables:   template.Variables,
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := t.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("saving workflow: %w", err)
	}

	return workflow, nil
}

// cloneNodes copies the template graph so later draft edits never reach
// back into the immutable template.
func cloneNodes(nodes []*models.WorkflowNode) []*models.WorkflowNode {
	out := make([]*models.WorkflowNode, 0, len(nodes))

	for _, n := range nodes {
		clone := *n
		out = append(out, &clone)
	}

	return out
}

func cloneConnections(connections []*models.WorkflowConnection) []*models.WorkflowConnection {
	out := make([]*models.WorkflowConnection, 0, len(connections))

	for _, c := range connections {
		clone := *c

		if c.Condition != nil {
			cond := *c.Condition
			clone.Condition = &cond
		}

		out = append(out, &clone)
	}

	return out
}
