package postgresql

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// MetricsRepository maintains per-workflow per-day rollups via upsert, so
// concurrent coordinators can record terminal executions without a
// read-modify-write race.
type MetricsRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *MetricsRepository) Record(ctx context.Context, workflowID string, day time.Time, status models.ExecutionStatus, durationMs int64) error {
	var succeeded, failed, cancelled int64

	switch status {
	case models.ExecutionStatusCompleted:
		succeeded = 1
	case models.ExecutionStatusFailed:
		failed = 1
	case models.ExecutionStatusCancelled:
		cancelled = 1
	}

	query := `
		INSERT INTO workflow_metrics (
			workflow_id, day, executions, succeeded, failed, cancelled, total_duration_ms
		) VALUES ($1, $2, 1, $3, $4, $5, $6)
		ON CONFLICT (workflow_id, day) DO UPDATE SET
			executions = workflow_metrics.executions + 1,
			succeeded = workflow_metrics.succeeded + EXCLUDED.succeeded,
			failed = workflow_metrics.failed + EXCLUDED.failed,
			cancelled = workflow_metrics.cancelled + EXCLUDED.cancelled,
			total_duration_ms = workflow_metrics.total_duration_ms + EXCLUDED.total_duration_ms
	`

	_, err := r.db.ExecContext(ctx, query,
		workflowID,
		models.MetricsDay(day),
		succeeded,
		failed,
		cancelled,
		durationMs,
	)
	if err != nil {
		return persistence.NewStoreError("Record", "metrics", workflowID, err)
	}

	return nil
}

func (r *MetricsRepository) ListByWorkflow(ctx context.Context, workflowID string, from, to time.Time) ([]*models.WorkflowMetrics, error) {
	query := `
		SELECT
			workflow_id
		  , day
		  , executions
		  , succeeded
		  , failed
		  , cancelled
		  , total_duration_ms
		FROM workflow_metrics
		WHERE workflow_id = $1 AND day BETWEEN $2 AND $3
		ORDER BY day
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID, models.MetricsDay(from), models.MetricsDay(to))
	if err != nil {
		return nil, persistence.NewStoreError("ListByWorkflow", "metrics", workflowID, err)
	}

	defer closeRows(ctx, r.logger, rows)

	rollups := make([]*models.WorkflowMetrics, 0)

	for rows.Next() {
		var rollup models.WorkflowMetrics

		err := rows.Scan(
			&rollup.WorkflowID,
			&rollup.Day,
			&rollup.Executions,
			&rollup.Succeeded,
			&rollup.Failed,
			&rollup.Cancelled,
			&rollup.TotalDurationMs,
		)
		if err != nil {
			return nil, persistence.NewStoreError("ListByWorkflow", "metrics", workflowID, err)
		}

		rollup.Day = models.MetricsDay(rollup.Day)

		rollups = append(rollups, &rollup)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStoreError("ListByWorkflow", "metrics", workflowID, err)
	}

	return rollups, nil
}
