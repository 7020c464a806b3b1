package file

import (
	"context"
	"errors"
	"os"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// IntegrationRepository stores integration descriptors as one JSON document
// each.
type IntegrationRepository struct {
	store *store
}

func (r *IntegrationRepository) GetByID(_ context.Context, id string) (*models.WorkflowIntegration, error) {
	var integration models.WorkflowIntegration

	err := r.store.read(id, &integration)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewStoreError("GetByID", "integration", id, persistence.ErrIntegrationNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "integration", id, err)
	}

	return &integration, nil
}

func (r *IntegrationRepository) Save(_ context.Context, integration *models.WorkflowIntegration) error {
	if err := r.store.write(integration.ID, integration); err != nil {
		return persistence.NewStoreError("Save", "integration", integration.ID, err)
	}

	return nil
}

func (r *IntegrationRepository) Delete(_ context.Context, id string) error {
	err := r.store.delete(id)
	if errors.Is(err, os.ErrNotExist) {
		return persistence.NewStoreError("Delete", "integration", id, persistence.ErrIntegrationNotFound)
	}

	if err != nil {
		return persistence.NewStoreError("Delete", "integration", id, err)
	}

	return nil
}

func (r *IntegrationRepository) List(ctx context.Context) ([]*models.WorkflowIntegration, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, persistence.NewStoreError("List", "integration", "", err)
	}

	integrations := make([]*models.WorkflowIntegration, 0, len(ids))

	for _, id := range ids {
		integration, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		integrations = append(integrations, integration)
	}

	return integrations, nil
}
