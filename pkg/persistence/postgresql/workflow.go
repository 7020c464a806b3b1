package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// WorkflowRepository handles workflow rows. The node and connection lists
// live as JSONB on the row, so saving a workflow replaces its graph
// atomically.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const workflowColumns = `
	id
  , name
  , description
  , status
  , trigger_type
  , trigger_config
  , template_id
  , nodes
  , connections
  , variables
  , settings
  , owner
  , created_at
  , updated_at
  , activated_at
`

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT` + workflowColumns + `FROM workflows WHERE id = $1 AND deleted_at IS NULL`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "workflow", id, err)
	}

	return workflow, nil
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	triggerConfig, err := marshalJSONB(workflow.TriggerConfig)
	if err != nil {
		return persistence.NewStoreError("Save", "workflow", workflow.ID, err)
	}

	nodes, err := marshalJSONB(workflow.Nodes)
	if err != nil {
		return persistence.NewStoreError("Save", "workflow", workflow.ID, err)
	}

	connections, err := marshalJSONB(workflow.Connections)
	if err != nil {
		return persistence.NewStoreError("Save", "workflow", workflow.ID, err)
	}

	variables, err := marshalJSONB(workflow.Variables)
	if err != nil {
		return persistence.NewStoreError("Save", "workflow", workflow.ID, err)
	}

	settings, err := marshalJSONB(workflow.Settings)
	if err != nil {
		return persistence.NewStoreError("Save", "workflow", workflow.ID, err)
	}

	if nodes == nil {
		nodes = []byte("[]")
	}

	if connections == nil {
		connections = []byte("[]")
	}

	query := `
		INSERT INTO workflows (
			id, name, description, status, trigger_type, trigger_config,
			template_id, nodes, connections, variables, settings, owner,
			created_at, updated_at, activated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			trigger_type = EXCLUDED.trigger_type,
			trigger_config = EXCLUDED.trigger_config,
			template_id = EXCLUDED.template_id,
			nodes = EXCLUDED.nodes,
			connections = EXCLUDED.connections,
			variables = EXCLUDED.variables,
			settings = EXCLUDED.settings,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at,
			activated_at = EXCLUDED.activated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		string(workflow.Status),
		string(workflow.TriggerType),
		triggerConfig,
		nullString(workflow.TemplateID),
		nodes,
		connections,
		variables,
		settings,
		workflow.Owner,
		workflow.CreatedAt,
		workflow.UpdatedAt,
		nullTimePtr(workflow.ActivatedAt),
	)
	if err != nil {
		return persistence.NewStoreError("Save", "workflow", workflow.ID, err)
	}

	return nil
}

// Delete soft deletes a workflow; reads filter on deleted_at.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workflows SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, time.Now().UTC())
	if err != nil {
		return persistence.NewStoreError("Delete", "workflow", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("Delete", "workflow", id, err)
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (r *WorkflowRepository) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.ListWorkflowsResult, error) {
	where := `WHERE deleted_at IS NULL`
	args := []any{}

	if opts.Owner != "" {
		args = append(args, opts.Owner)
		where += ` AND owner = $1`
	}

	if opts.Status != nil {
		args = append(args, string(*opts.Status))

		if len(args) == 1 {
			where += ` AND status = $1`
		} else {
			where += ` AND status = $2`
		}
	}

	var total int64

	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workflows `+where, args...).Scan(&total)
	if err != nil {
		return nil, persistence.NewStoreError("ListWorkflows", "workflow", "", err)
	}

	query := `SELECT` + workflowColumns + `FROM workflows ` + where + ` ORDER BY created_at DESC`

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewStoreError("ListWorkflows", "workflow", "", err)
	}

	defer closeRows(ctx, r.logger, rows)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, persistence.NewStoreError("ListWorkflows", "workflow", "", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStoreError("ListWorkflows", "workflow", "", err)
	}

	return &persistence.ListWorkflowsResult{
		Workflows:   workflows,
		TotalCount:  total,
		HasNextPage: int64(opts.Offset+len(workflows)) < total,
	}, nil
}

func scanWorkflow(row scanner) (*models.Workflow, error) {
	var (
		workflow      models.Workflow
		triggerConfig []byte
		templateID    sql.NullString
		nodes         []byte
		connections   []byte
		variables     []byte
		settings      []byte
		activatedAt   sql.NullTime
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&workflow.Status,
		&workflow.TriggerType,
		&triggerConfig,
		&templateID,
		&nodes,
		&connections,
		&variables,
		&settings,
		&workflow.Owner,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
		&activatedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.TemplateID = templateID.String
	workflow.ActivatedAt = timePtr(activatedAt)

	if err := unmarshalJSONB(triggerConfig, &workflow.TriggerConfig); err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(nodes, &workflow.Nodes); err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(connections, &workflow.Connections); err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(variables, &workflow.Variables); err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(settings, &workflow.Settings); err != nil {
		return nil, err
	}

	return &workflow, nil
}
