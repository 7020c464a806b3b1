package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// ScheduleRepository handles workflow schedule rows. The due query relies on
// the precomputed next_run_at column.
type ScheduleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const scheduleColumns = `
	id
  , workflow_id
  , cron_expression
  , active
  , start_at
  , end_at
  , last_run_at
  , next_run_at
  , created_at
  , updated_at
`

func (r *ScheduleRepository) List(ctx context.Context) ([]*models.WorkflowSchedule, error) {
	query := `SELECT` + scheduleColumns + `FROM workflow_schedules ORDER BY created_at`

	return r.list(ctx, query)
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*models.WorkflowSchedule, error) {
	query := `SELECT` + scheduleColumns + `FROM workflow_schedules WHERE id = $1`

	schedule, err := scanSchedule(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", "schedule", id, persistence.ErrScheduleNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "schedule", id, err)
	}

	return schedule, nil
}

func (r *ScheduleRepository) Save(ctx context.Context, schedule *models.WorkflowSchedule) error {
	query := `
		INSERT INTO workflow_schedules (
			id, workflow_id, cron_expression, active, start_at, end_at,
			last_run_at, next_run_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			cron_expression = EXCLUDED.cron_expression,
			active = EXCLUDED.active,
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			last_run_at = EXCLUDED.last_run_at,
			next_run_at = EXCLUDED.next_run_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.WorkflowID,
		schedule.CronExpression,
		schedule.Active,
		nullTimePtr(schedule.StartAt),
		nullTimePtr(schedule.EndAt),
		nullTimePtr(schedule.LastRunAt),
		schedule.NextRunAt,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Save", "schedule", schedule.ID, err)
	}

	return nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflow_schedules WHERE id = $1`, id)
	if err != nil {
		return persistence.NewStoreError("Delete", "schedule", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("Delete", "schedule", id, err)
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", "schedule", id, persistence.ErrScheduleNotFound)
	}

	return nil
}

func (r *ScheduleRepository) ListDue(ctx context.Context, now time.Time) ([]*models.WorkflowSchedule, error) {
	query := `SELECT` + scheduleColumns + `
		FROM workflow_schedules
		WHERE active = TRUE AND next_run_at <= $1
		ORDER BY next_run_at
	`

	return r.list(ctx, query, now)
}

func (r *ScheduleRepository) list(ctx context.Context, query string, args ...any) ([]*models.WorkflowSchedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewStoreError("List", "schedule", "", err)
	}

	defer closeRows(ctx, r.logger, rows)

	schedules := make([]*models.WorkflowSchedule, 0)

	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, persistence.NewStoreError("List", "schedule", "", err)
		}

		schedules = append(schedules, schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStoreError("List", "schedule", "", err)
	}

	return schedules, nil
}

func scanSchedule(row scanner) (*models.WorkflowSchedule, error) {
	var (
		schedule  models.WorkflowSchedule
		startAt   sql.NullTime
		endAt     sql.NullTime
		lastRunAt sql.NullTime
	)

	err := row.Scan(
		&schedule.ID,
		&schedule.WorkflowID,
		&schedule.CronExpression,
		&schedule.Active,
		&startAt,
		&endAt,
		&lastRunAt,
		&schedule.NextRunAt,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	schedule.StartAt = timePtr(startAt)
	schedule.EndAt = timePtr(endAt)
	schedule.LastRunAt = timePtr(lastRunAt)

	return &schedule, nil
}
