package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// ExecutionRepository handles workflow execution rows.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const executionColumns = `
	id
  , workflow_id
  , status
  , triggered_by
  , subject_type
  , subject_id
  , trigger_payload
  , variables
  , current_node_id
  , error_message
  , started_at
  , completed_at
`

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	query := `SELECT` + executionColumns + `FROM workflow_executions WHERE id = $1`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", "execution", id, persistence.ErrExecutionNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "execution", id, err)
	}

	return execution, nil
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	triggerPayload, err := marshalJSONB(execution.TriggerPayload)
	if err != nil {
		return persistence.NewStoreError("Save", "execution", execution.ID, err)
	}

	variables, err := marshalJSONB(execution.Variables)
	if err != nil {
		return persistence.NewStoreError("Save", "execution", execution.ID, err)
	}

	query := `
		INSERT INTO workflow_executions (
			id, workflow_id, status, triggered_by, subject_type, subject_id,
			trigger_payload, variables, current_node_id, error_message,
			started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			variables = EXCLUDED.variables,
			current_node_id = EXCLUDED.current_node_id,
			error_message = EXCLUDED.error_message,
			completed_at = EXCLUDED.completed_at
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		string(execution.Status),
		execution.TriggeredBy,
		nullString(execution.Subject.Type),
		nullString(execution.Subject.ID),
		triggerPayload,
		variables,
		nullString(execution.CurrentNodeID),
		nullString(execution.Error),
		execution.StartedAt,
		nullTimePtr(execution.CompletedAt),
	)
	if err != nil {
		return persistence.NewStoreError("Save", "execution", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	query := `SELECT` + executionColumns + `
		FROM workflow_executions
		WHERE workflow_id = $1
		ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, persistence.NewStoreError("ListByWorkflow", "execution", workflowID, err)
	}

	defer closeRows(ctx, r.logger, rows)

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, persistence.NewStoreError("ListByWorkflow", "execution", workflowID, err)
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStoreError("ListByWorkflow", "execution", workflowID, err)
	}

	return executions, nil
}

func scanExecution(row scanner) (*models.WorkflowExecution, error) {
	var (
		execution      models.WorkflowExecution
		subjectType    sql.NullString
		subjectID      sql.NullString
		triggerPayload []byte
		variables      []byte
		currentNodeID  sql.NullString
		errorMessage   sql.NullString
		completedAt    sql.NullTime
	)

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&execution.Status,
		&execution.TriggeredBy,
		&subjectType,
		&subjectID,
		&triggerPayload,
		&variables,
		&currentNodeID,
		&errorMessage,
		&execution.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	execution.Subject = models.Subject{Type: subjectType.String, ID: subjectID.String}
	execution.CurrentNodeID = currentNodeID.String
	execution.Error = errorMessage.String
	execution.CompletedAt = timePtr(completedAt)

	if err := unmarshalJSONB(triggerPayload, &execution.TriggerPayload); err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(variables, &execution.Variables); err != nil {
		return nil, err
	}

	return &execution, nil
}
