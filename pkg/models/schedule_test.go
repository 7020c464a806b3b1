package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkflowSchedule(t *testing.T) {
	schedule, err := NewWorkflowSchedule("s1", "wf1", "*/5 * * * *")
	require.NoError(t, err)

	assert.True(t, schedule.Active)
	assert.True(t, schedule.NextRunAt.After(time.Now().UTC().Add(-time.Second)))
	assert.Zero(t, schedule.NextRunAt.Second())
}

func TestNewWorkflowScheduleRejectsBadCron(t *testing.T) {
	_, err := NewWorkflowSchedule("s1", "wf1", "not a cron")
	assert.Error(t, err)
}

func TestMarkRunAdvancesNextRun(t *testing.T) {
	schedule, err := NewWorkflowSchedule("s1", "wf1", "0 * * * *")
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, schedule.MarkRun(at))

	require.NotNil(t, schedule.LastRunAt)
	assert.Equal(t, at, *schedule.LastRunAt)
	assert.Equal(t, time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), schedule.NextRunAt)
}

func TestRescheduleKeepsOldExpressionOnError(t *testing.T) {
	schedule, err := NewWorkflowSchedule("s1", "wf1", "0 * * * *")
	require.NoError(t, err)

	err = schedule.Reschedule("garbage")
	assert.Error(t, err)
	assert.Equal(t, "0 * * * *", schedule.CronExpression)

	require.NoError(t, schedule.Reschedule("30 * * * *"))
	assert.Equal(t, 30, schedule.NextRunAt.Minute())
}

func TestIsDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)
	later := now.Add(time.Hour)

	tests := []struct {
		name     string
		schedule WorkflowSchedule
		expected bool
	}{
		{
			name:     "due",
			schedule: WorkflowSchedule{Active: true, NextRunAt: earlier},
			expected: true,
		},
		{
			name:     "not yet due",
			schedule: WorkflowSchedule{Active: true, NextRunAt: later},
			expected: false,
		},
		{
			name:     "inactive",
			schedule: WorkflowSchedule{Active: false, NextRunAt: earlier},
			expected: false,
		},
		{
			name:     "before start window",
			schedule: WorkflowSchedule{Active: true, NextRunAt: earlier, StartAt: &later},
			expected: false,
		},
		{
			name:     "after end window",
			schedule: WorkflowSchedule{Active: true, NextRunAt: earlier, EndAt: &earlier},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.schedule.IsDue(now))
		})
	}
}

func TestScheduleValidate(t *testing.T) {
	valid := WorkflowSchedule{ID: "s1", WorkflowID: "wf1", CronExpression: "* * * * *"}
	assert.NoError(t, valid.Validate())

	missing := WorkflowSchedule{ID: "s1", CronExpression: "* * * * *"}
	assert.ErrorIs(t, missing.Validate(), ErrInvalidSchedule)

	badCron := WorkflowSchedule{ID: "s1", WorkflowID: "wf1", CronExpression: "* * *"}
	assert.Error(t, badCron.Validate())
}
