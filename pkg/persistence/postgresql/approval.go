package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// ApprovalRepository handles workflow approval rows.
type ApprovalRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const approvalColumns = `
	id
  , execution_id
  , workflow_id
  , node_id
  , approver_id
  , status
  , request_data
  , response_data
  , comments
  , requested_at
  , responded_at
`

func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*models.WorkflowApproval, error) {
	query := `SELECT` + approvalColumns + `FROM workflow_approvals WHERE id = $1`

	approval, err := scanApproval(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", "approval", id, persistence.ErrApprovalNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "approval", id, err)
	}

	return approval, nil
}

func (r *ApprovalRepository) Save(ctx context.Context, approval *models.WorkflowApproval) error {
	requestData, err := marshalJSONB(approval.RequestData)
	if err != nil {
		return persistence.NewStoreError("Save", "approval", approval.ID, err)
	}

	responseData, err := marshalJSONB(approval.ResponseData)
	if err != nil {
		return persistence.NewStoreError("Save", "approval", approval.ID, err)
	}

	query := `
		INSERT INTO workflow_approvals (
			id, execution_id, workflow_id, node_id, approver_id, status,
			request_data, response_data, comments, requested_at, responded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			response_data = EXCLUDED.response_data,
			comments = EXCLUDED.comments,
			responded_at = EXCLUDED.responded_at
	`

	_, err = r.db.ExecContext(ctx, query,
		approval.ID,
		approval.ExecutionID,
		approval.WorkflowID,
		approval.NodeID,
		approval.ApproverID,
		string(approval.Status),
		requestData,
		responseData,
		approval.Comments,
		approval.RequestedAt,
		nullTimePtr(approval.RespondedAt),
	)
	if err != nil {
		return persistence.NewStoreError("Save", "approval", approval.ID, err)
	}

	return nil
}

func (r *ApprovalRepository) ListByExecution(ctx context.Context, executionID string) ([]*models.WorkflowApproval, error) {
	query := `SELECT` + approvalColumns + `
		FROM workflow_approvals
		WHERE execution_id = $1
		ORDER BY requested_at
	`

	return r.list(ctx, query, executionID)
}

func (r *ApprovalRepository) ListPendingByApprover(ctx context.Context, approverID string) ([]*models.WorkflowApproval, error) {
	query := `SELECT` + approvalColumns + `
		FROM workflow_approvals
		WHERE approver_id = $1 AND status = 'pending'
		ORDER BY requested_at
	`

	return r.list(ctx, query, approverID)
}

func (r *ApprovalRepository) list(ctx context.Context, query string, arg any) ([]*models.WorkflowApproval, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, persistence.NewStoreError("List", "approval", "", err)
	}

	defer closeRows(ctx, r.logger, rows)

	approvals := make([]*models.WorkflowApproval, 0)

	for rows.Next() {
		approval, err := scanApproval(rows)
		if err != nil {
			return nil, persistence.NewStoreError("List", "approval", "", err)
		}

		approvals = append(approvals, approval)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStoreError("List", "approval", "", err)
	}

	return approvals, nil
}

func scanApproval(row scanner) (*models.WorkflowApproval, error) {
	var (
		approval     models.WorkflowApproval
		requestData  []byte
		responseData []byte
		respondedAt  sql.NullTime
	)

	err := row.Scan(
		&approval.ID,
		&approval.ExecutionID,
		&approval.WorkflowID,
		&approval.NodeID,
		&approval.ApproverID,
		&approval.Status,
		&requestData,
		&responseData,
		&approval.Comments,
		&approval.RequestedAt,
		&respondedAt,
	)
	if err != nil {
		return nil, err
	}

	approval.RespondedAt = timePtr(respondedAt)

	if err := unmarshalJSONB(requestData, &approval.RequestData); err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(responseData, &approval.ResponseData); err != nil {
		return nil, err
	}

	return &approval, nil
}
