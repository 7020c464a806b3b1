package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// TemplateRepository handles workflow template rows. Versions of a template
// share a name; at most one version per name is active.
type TemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const templateColumns = `
	id
  , name
  , category
  , version
  , active
  , nodes
  , connections
  , variables
  , created_by
  , created_at
`

func (r *TemplateRepository) List(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	query := `SELECT` + templateColumns + `FROM workflow_templates ORDER BY name, version DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence.NewStoreError("List", "template", "", err)
	}

	defer closeRows(ctx, r.logger, rows)

	templates := make([]*models.WorkflowTemplate, 0)

	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, persistence.NewStoreError("List", "template", "", err)
		}

		templates = append(templates, template)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStoreError("List", "template", "", err)
	}

	return templates, nil
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	query := `SELECT` + templateColumns + `FROM workflow_templates WHERE id = $1`

	template, err := scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", "template", id, persistence.ErrTemplateNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "template", id, err)
	}

	return template, nil
}

func (r *TemplateRepository) ActiveByName(ctx context.Context, name string) (*models.WorkflowTemplate, error) {
	query := `SELECT` + templateColumns + `
		FROM workflow_templates
		WHERE name = $1 AND active = TRUE
		ORDER BY version DESC
		LIMIT 1
	`

	template, err := scanTemplate(r.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("ActiveByName", "template", name, persistence.ErrTemplateNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("ActiveByName", "template", name, err)
	}

	return template, nil
}

func (r *TemplateRepository) Save(ctx context.Context, template *models.WorkflowTemplate) error {
	nodes, err := marshalJSONB(template.Nodes)
	if err != nil {
		return persistence.NewStoreError("Save", "template", template.ID, err)
	}

	connections, err := marshalJSONB(template.Connections)
	if err != nil {
		return persistence.NewStoreError("Save", "template", template.ID, err)
	}

	variables, err := marshalJSONB(template.Variables)
	if err != nil {
		return persistence.NewStoreError("Save", "template", template.ID, err)
	}

	if nodes == nil {
		nodes = []byte("[]")
	}

	if connections == nil {
		connections = []byte("[]")
	}

	query := `
		INSERT INTO workflow_templates (
			id, name, category, version, active, nodes, connections,
			variables, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			version = EXCLUDED.version,
			active = EXCLUDED.active,
			nodes = EXCLUDED.nodes,
			connections = EXCLUDED.connections,
			variables = EXCLUDED.variables,
			created_by = EXCLUDED.created_by
	`

	_, err = r.db.ExecContext(ctx, query,
		template.ID,
		template.Name,
		template.Category,
		template.Version,
		template.Active,
		nodes,
		connections,
		variables,
		template.CreatedBy,
		template.CreatedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Save", "template", template.ID, err)
	}

	return nil
}

func scanTemplate(row scanner) (*models.WorkflowTemplate, error) {
	var (
		template    models.WorkflowTemplate
		nodes       []byte
		connections []byte
		variables   []byte
	)

	err := row.Scan(
		&template.ID,
		&template.Name,
		&template.Category,
		&template.Version,
		&template.Active,
		&nodes,
		&connections,
		&variables,
		&template.CreatedBy,
		&template.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(nodes, &template.Nodes); err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(connections, &template.Connections); err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(variables, &template.Variables); err != nil {
		return nil, err
	}

	return &template, nil
}
