package scheduler

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow-io/stepflow/pkg/dispatch"
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence/file"
	"github.com/stepflow-io/stepflow/pkg/testutil"
)

func newTestScheduler(t *testing.T) (*Scheduler, *file.Persistence, *testutil.SyncDispatcher) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	dispatcher := testutil.NewSyncDispatcher()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	return NewScheduler(logger, store.ScheduleRepository(), dispatcher), store, dispatcher
}

func saveSchedule(t *testing.T, store *file.Persistence, schedule *models.WorkflowSchedule) {
	t.Helper()
	require.NoError(t, store.ScheduleRepository().Save(context.Background(), schedule))
}

func TestProcessDueSchedulesFiresTrigger(t *testing.T) {
	scheduler, store, dispatcher := newTestScheduler(t)
	ctx := context.Background()

	nextRun := time.Now().UTC().Add(-time.Minute)
	saveSchedule(t, store, &models.WorkflowSchedule{
		ID: "s-1", WorkflowID: "wf-1", CronExpression: "0 * * * *",
		Active: true, NextRunAt: nextRun,
	})

	scheduler.ProcessDueSchedules(ctx)

	require.Len(t, dispatcher.Published, 1)

	trigger, ok := dispatcher.Published[0].(dispatch.WorkflowTrigger)
	require.True(t, ok)
	assert.Equal(t, "wf-1", trigger.WorkflowID)
	assert.Equal(t, "scheduler", trigger.TriggeredBy)
	assert.Equal(t, models.Subject{Type: "schedule", ID: "s-1"}, trigger.Subject)
	assert.Equal(t, nextRun.Format(time.RFC3339), trigger.Payload["scheduled_for"])
	assert.Equal(t, "0 * * * *", trigger.Payload["cron_expression"])
}

func TestProcessDueSchedulesAdvancesNextRun(t *testing.T) {
	scheduler, store, dispatcher := newTestScheduler(t)
	ctx := context.Background()

	saveSchedule(t, store, &models.WorkflowSchedule{
		ID: "s-1", WorkflowID: "wf-1", CronExpression: "0 * * * *",
		Active: true, NextRunAt: time.Now().UTC().Add(-time.Minute),
	})

	scheduler.ProcessDueSchedules(ctx)

	schedule, err := store.ScheduleRepository().GetByID(ctx, "s-1")
	require.NoError(t, err)
	assert.NotNil(t, schedule.LastRunAt)
	assert.True(t, schedule.NextRunAt.After(time.Now().UTC()))

	// The advanced schedule is no longer due.
	scheduler.ProcessDueSchedules(ctx)
	assert.Len(t, dispatcher.Published, 1)
}

func TestProcessDueSchedulesSkipsFutureAndInactive(t *testing.T) {
	scheduler, store, dispatcher := newTestScheduler(t)
	ctx := context.Background()

	saveSchedule(t, store, &models.WorkflowSchedule{
		ID: "s-future", WorkflowID: "wf-1", CronExpression: "0 * * * *",
		Active: true, NextRunAt: time.Now().UTC().Add(time.Hour),
	})
	saveSchedule(t, store, &models.WorkflowSchedule{
		ID: "s-off", WorkflowID: "wf-2", CronExpression: "0 * * * *",
		Active: false, NextRunAt: time.Now().UTC().Add(-time.Hour),
	})

	scheduler.ProcessDueSchedules(ctx)

	assert.Empty(t, dispatcher.Published)
}

func TestProcessDueSchedulesFiresEachDueScheduleOnce(t *testing.T) {
	scheduler, store, dispatcher := newTestScheduler(t)
	ctx := context.Background()

	for _, id := range []string{"s-1", "s-2"} {
		saveSchedule(t, store, &models.WorkflowSchedule{
			ID: id, WorkflowID: "wf-" + id, CronExpression: "*/5 * * * *",
			Active: true, NextRunAt: time.Now().UTC().Add(-time.Minute),
		})
	}

	scheduler.ProcessDueSchedules(ctx)
	assert.Len(t, dispatcher.Published, 2)

	// A second pass finds nothing due.
	scheduler.ProcessDueSchedules(ctx)
	assert.Len(t, dispatcher.Published, 2)
}

func TestStartAndStopAreIdempotent(t *testing.T) {
	scheduler, _, _ := newTestScheduler(t)
	ctx := context.Background()

	require.NoError(t, scheduler.Start(ctx))
	require.NoError(t, scheduler.Start(ctx))
	require.NoError(t, scheduler.Stop(ctx))
	require.NoError(t, scheduler.Stop(ctx))
}
