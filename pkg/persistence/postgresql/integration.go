package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// IntegrationRepository handles external endpoint descriptors.
type IntegrationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const integrationColumns = `
	id
  , name
  , type
  , base_url
  , auth_type
  , auth_token
  , headers
  , config
  , active
  , created_at
  , updated_at
`

func (r *IntegrationRepository) List(ctx context.Context) ([]*models.WorkflowIntegration, error) {
	query := `SELECT` + integrationColumns + `FROM workflow_integrations ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence.NewStoreError("List", "integration", "", err)
	}

	defer closeRows(ctx, r.logger, rows)

	integrations := make([]*models.WorkflowIntegration, 0)

	for rows.Next() {
		integration, err := scanIntegration(rows)
		if err != nil {
			return nil, persistence.NewStoreError("List", "integration", "", err)
		}

		integrations = append(integrations, integration)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStoreError("List", "integration", "", err)
	}

	return integrations, nil
}

func (r *IntegrationRepository) GetByID(ctx context.Context, id string) (*models.WorkflowIntegration, error) {
	query := `SELECT` + integrationColumns + `FROM workflow_integrations WHERE id = $1`

	integration, err := scanIntegration(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", "integration", id, persistence.ErrIntegrationNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "integration", id, err)
	}

	return integration, nil
}

func (r *IntegrationRepository) Save(ctx context.Context, integration *models.WorkflowIntegration) error {
	headers, err := marshalJSONB(integration.Headers)
	if err != nil {
		return persistence.NewStoreError("Save", "integration", integration.ID, err)
	}

	config, err := marshalJSONB(integration.Config)
	if err != nil {
		return persistence.NewStoreError("Save", "integration", integration.ID, err)
	}

	query := `
		INSERT INTO workflow_integrations (
			id, name, type, base_url, auth_type, auth_token, headers,
			config, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			base_url = EXCLUDED.base_url,
			auth_type = EXCLUDED.auth_type,
			auth_token = EXCLUDED.auth_token,
			headers = EXCLUDED.headers,
			config = EXCLUDED.config,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		integration.ID,
		integration.Name,
		string(integration.Type),
		integration.BaseURL,
		integration.AuthType,
		integration.AuthToken,
		headers,
		config,
		integration.Active,
		integration.CreatedAt,
		integration.UpdatedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Save", "integration", integration.ID, err)
	}

	return nil
}

func (r *IntegrationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflow_integrations WHERE id = $1`, id)
	if err != nil {
		return persistence.NewStoreError("Delete", "integration", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("Delete", "integration", id, err)
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", "integration", id, persistence.ErrIntegrationNotFound)
	}

	return nil
}

func scanIntegration(row scanner) (*models.WorkflowIntegration, error) {
	var (
		integration models.WorkflowIntegration
		headers     []byte
		config      []byte
	)

	err := row.Scan(
		&integration.ID,
		&integration.Name,
		&integration.Type,
		&integration.BaseURL,
		&integration.AuthType,
		&integration.AuthToken,
		&headers,
		&config,
		&integration.Active,
		&integration.CreatedAt,
		&integration.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(headers, &integration.Headers); err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(config, &integration.Config); err != nil {
		return nil, err
	}

	return &integration, nil
}
