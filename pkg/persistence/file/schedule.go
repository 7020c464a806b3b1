package file

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// ScheduleRepository stores schedules as one JSON document each.
type ScheduleRepository struct {
	store *store
}

func (r *ScheduleRepository) GetByID(_ context.Context, id string) (*models.WorkflowSchedule, error) {
	var schedule models.WorkflowSchedule

	err := r.store.read(id, &schedule)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewStoreError("GetByID", "schedule", id, persistence.ErrScheduleNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "schedule", id, err)
	}

	return &schedule, nil
}

func (r *ScheduleRepository) Save(_ context.Context, schedule *models.WorkflowSchedule) error {
	if err := r.store.write(schedule.ID, schedule); err != nil {
		return persistence.NewStoreError("Save", "schedule", schedule.ID, err)
	}

	return nil
}

func (r *ScheduleRepository) Delete(_ context.Context, id string) error {
	err := r.store.delete(id)
	if errors.Is(err, os.ErrNotExist) {
		return persistence.NewStoreError("Delete", "schedule", id, persistence.ErrScheduleNotFound)
	}

	if err != nil {
		return persistence.NewStoreError("Delete", "schedule", id, err)
	}

	return nil
}

func (r *ScheduleRepository) List(ctx context.Context) ([]*models.WorkflowSchedule, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, persistence.NewStoreError("List", "schedule", "", err)
	}

	schedules := make([]*models.WorkflowSchedule, 0, len(ids))

	for _, id := range ids {
		schedule, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		schedules = append(schedules, schedule)
	}

	return schedules, nil
}

func (r *ScheduleRepository) ListDue(ctx context.Context, now time.Time) ([]*models.WorkflowSchedule, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var due []*models.WorkflowSchedule

	for _, schedule := range all {
		if schedule.IsDue(now) {
			due = append(due, schedule)
		}
	}

	return due, nil
}
