package file

import (
	"context"
	"errors"
	"os"
	"sort"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// ApprovalRepository stores approvals as one JSON document each.
type ApprovalRepository struct {
	store *store
}

func (r *ApprovalRepository) GetByID(_ context.Context, id string) (*models.WorkflowApproval, error) {
	var approval models.WorkflowApproval

	err := r.store.read(id, &approval)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewStoreError("GetByID", "approval", id, persistence.ErrApprovalNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "approval", id, err)
	}

	return &approval, nil
}

func (r *ApprovalRepository) Save(_ context.Context, approval *models.WorkflowApproval) error {
	if err := r.store.write(approval.ID, approval); err != nil {
		return persistence.NewStoreError("Save", "approval", approval.ID, err)
	}

	return nil
}

func (r *ApprovalRepository) ListByExecution(ctx context.Context, executionID string) ([]*models.WorkflowApproval, error) {
	return r.list(ctx, func(a *models.WorkflowApproval) bool {
		return a.ExecutionID == executionID
	})
}

func (r *ApprovalRepository) ListPendingByApprover(ctx context.Context, approverID string) ([]*models.WorkflowApproval, error) {
	return r.list(ctx, func(a *models.WorkflowApproval) bool {
		return a.ApproverID == approverID && a.IsPending()
	})
}

func (r *ApprovalRepository) list(ctx context.Context, match func(*models.WorkflowApproval) bool) ([]*models.WorkflowApproval, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, persistence.NewStoreError("List", "approval", "", err)
	}

	var approvals []*models.WorkflowApproval

	for _, id := range ids {
		approval, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if match(approval) {
			approvals = append(approvals, approval)
		}
	}

	sort.Slice(approvals, func(i, j int) bool {
		return approvals[i].RequestedAt.Before(approvals[j].RequestedAt)
	})

	return approvals, nil
}
