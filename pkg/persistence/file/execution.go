package file

import (
	"context"
	"errors"
	"os"
	"sort"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// ExecutionRepository stores executions as one JSON document each.
type ExecutionRepository struct {
	store *store
}

func (r *ExecutionRepository) GetByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	var execution models.WorkflowExecution

	err := r.store.read(id, &execution)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewStoreError("GetByID", "execution", id, persistence.ErrExecutionNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "execution", id, err)
	}

	return &execution, nil
}

func (r *ExecutionRepository) Save(_ context.Context, execution *models.WorkflowExecution) error {
	if err := r.store.write(execution.ID, execution); err != nil {
		return persistence.NewStoreError("Save", "execution", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, persistence.NewStoreError("ListByWorkflow", "execution", workflowID, err)
	}

	var executions []*models.WorkflowExecution

	for _, id := range ids {
		execution, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.Before(executions[j].StartedAt)
	})

	return executions, nil
}

// ExecutionLogRepository stores the append-only log of each execution as a
// single JSON array document keyed by execution id.
type ExecutionLogRepository struct {
	store *store
}

func (r *ExecutionLogRepository) Append(_ context.Context, entry *models.ExecutionLogEntry) error {
	var entries []*models.ExecutionLogEntry

	err := r.store.update(entry.ExecutionID, &entries, func() (any, error) {
		return append(entries, entry), nil
	})
	if err != nil {
		return persistence.NewStoreError("Append", "execution_log", entry.ExecutionID, err)
	}

	return nil
}

func (r *ExecutionLogRepository) ListByExecution(_ context.Context, executionID string) ([]*models.ExecutionLogEntry, error) {
	var entries []*models.ExecutionLogEntry

	err := r.store.read(executionID, &entries)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, persistence.NewStoreError("ListByExecution", "execution_log", executionID, err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	return entries, nil
}
