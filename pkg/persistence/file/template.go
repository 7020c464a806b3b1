package file

import (
	"context"
	"errors"
	"os"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// TemplateRepository stores workflow templates as one JSON document each.
type TemplateRepository struct {
	store *store
}

func (r *TemplateRepository) GetByID(_ context.Context, id string) (*models.WorkflowTemplate, error) {
	var template models.WorkflowTemplate

	err := r.store.read(id, &template)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewStoreError("GetByID", "template", id, persistence.ErrTemplateNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "template", id, err)
	}

	return &template, nil
}

func (r *TemplateRepository) Save(_ context.Context, template *models.WorkflowTemplate) error {
	if err := r.store.write(template.ID, template); err != nil {
		return persistence.NewStoreError("Save", "template", template.ID, err)
	}

	return nil
}

func (r *TemplateRepository) List(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, persistence.NewStoreError("List", "template", "", err)
	}

	templates := make([]*models.WorkflowTemplate, 0, len(ids))

	for _, id := range ids {
		template, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		templates = append(templates, template)
	}

	return templates, nil
}

func (r *TemplateRepository) ActiveByName(ctx context.Context, name string) (*models.WorkflowTemplate, error) {
	templates, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, template := range templates {
		if template.Name == name && template.Active {
			return template, nil
		}
	}

	return nil, persistence.NewStoreError("ActiveByName", "template", name, persistence.ErrTemplateNotFound)
}
