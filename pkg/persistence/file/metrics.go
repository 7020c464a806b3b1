package file

import (
	"context"
	"sort"
	"time"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// MetricsRepository stores one rollup document per workflow and day.
type MetricsRepository struct {
	store *store
}

func metricsKey(workflowID string, day time.Time) string {
	return workflowID + "_" + day.UTC().Format("2006-01-02")
}

func (r *MetricsRepository) Record(_ context.Context, workflowID string, day time.Time, status models.ExecutionStatus, durationMs int64) error {
	day = models.MetricsDay(day)

	var rollup models.WorkflowMetrics

	err := r.store.update(metricsKey(workflowID, day), &rollup, func() (any, error) {
		rollup.WorkflowID = workflowID
		rollup.Day = day
		rollup.Record(status, durationMs)

		return &rollup, nil
	})
	if err != nil {
		return persistence.NewStoreError("Record", "metrics", workflowID, err)
	}

	return nil
}

func (r *MetricsRepository) ListByWorkflow(_ context.Context, workflowID string, from, to time.Time) ([]*models.WorkflowMetrics, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, persistence.NewStoreError("ListByWorkflow", "metrics", workflowID, err)
	}

	var rollups []*models.WorkflowMetrics

	for _, id := range ids {
		var rollup models.WorkflowMetrics

		if err := r.store.read(id, &rollup); err != nil {
			return nil, persistence.NewStoreError("ListByWorkflow", "metrics", id, err)
		}

		if rollup.WorkflowID != workflowID {
			continue
		}

		if rollup.Day.Before(models.MetricsDay(from)) || rollup.Day.After(models.MetricsDay(to)) {
			continue
		}

		rollups = append(rollups, &rollup)
	}

	sort.Slice(rollups, func(i, j int) bool {
		return rollups[i].Day.Before(rollups[j].Day)
	})

	return rollups, nil
}
