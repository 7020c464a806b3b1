package file

import (
	"context"
	"errors"
	"os"
	"sort"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// WorkflowRepository stores workflows as one JSON document each.
type WorkflowRepository struct {
	store *store
}

func (r *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	err := r.store.read(id, &workflow)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewStoreError("GetByID", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "workflow", id, err)
	}

	return &workflow, nil
}

func (r *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	if err := r.store.write(workflow.ID, workflow); err != nil {
		return persistence.NewStoreError("Save", "workflow", workflow.ID, err)
	}

	return nil
}

func (r *WorkflowRepository) Delete(_ context.Context, id string) error {
	err := r.store.delete(id)
	if errors.Is(err, os.ErrNotExist) {
		return persistence.NewStoreError("Delete", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return persistence.NewStoreError("Delete", "workflow", id, err)
	}

	return nil
}

func (r *WorkflowRepository) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.ListWorkflowsResult, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, persistence.NewStoreError("ListWorkflows", "workflow", "", err)
	}

	var all []*models.Workflow

	for _, id := range ids {
		workflow, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if opts.Owner != "" && workflow.Owner != opts.Owner {
			continue
		}

		if opts.Status != nil && workflow.Status != *opts.Status {
			continue
		}

		all = append(all, workflow)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))

	start := opts.Offset
	if start > len(all) {
		start = len(all)
	}

	end := len(all)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	return &persistence.ListWorkflowsResult{
		Workflows:   all[start:end],
		TotalCount:  total,
		HasNextPage: end < len(all),
	}, nil
}
