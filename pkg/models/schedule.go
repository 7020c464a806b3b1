package models

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

// WorkflowSchedule is a recurring trigger definition bound to a workflow.
// It drives creation of new executions and holds no execution state itself.
// NextRunAt is precomputed so the poller can query due schedules without
// keeping per-schedule timers.
type WorkflowSchedule struct {
	ID             string     `json:"id"              validate:"required"`
	WorkflowID     string     `json:"workflow_id"     validate:"required"`
	CronExpression string     `json:"cron_expression" validate:"required"`
	Active         bool       `json:"active"`
	StartAt        *time.Time `json:"start_at,omitempty"`
	EndAt          *time.Time `json:"end_at,omitempty"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	NextRunAt      time.Time  `json:"next_run_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ErrInvalidSchedule is returned when schedule validation fails.
var ErrInvalidSchedule = errors.New("invalid schedule configuration")

func cronParser() cron.Parser {
	// Standard 5-field format: minute hour day month weekday.
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
}

// NewWorkflowSchedule creates a schedule with its first run time computed.
func NewWorkflowSchedule(id, workflowID, cronExpression string) (*WorkflowSchedule, error) {
	now := time.Now().UTC()
	schedule := &WorkflowSchedule{
		ID:             id,
		WorkflowID:     workflowID,
		CronExpression: cronExpression,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := schedule.computeNextRun(now); err != nil {
		return nil, err
	}

	return schedule, nil
}

// Reschedule swaps the cron expression and recomputes NextRunAt without
// recording a firing.
func (s *WorkflowSchedule) Reschedule(cronExpression string) error {
	previous := s.CronExpression
	s.CronExpression = cronExpression

	if err := s.computeNextRun(time.Now().UTC()); err != nil {
		s.CronExpression = previous

		return err
	}

	return nil
}

// MarkRun records a firing at the given time and advances NextRunAt.
func (s *WorkflowSchedule) MarkRun(at time.Time) error {
	ranAt := at
	s.LastRunAt = &ranAt

	return s.computeNextRun(at)
}

func (s *WorkflowSchedule) computeNextRun(reference time.Time) error {
	parsed, err := cronParser().Parse(s.CronExpression)
	if err != nil {
		return err
	}

	s.NextRunAt = parsed.Next(reference)
	s.UpdatedAt = time.Now().UTC()

	return nil
}

// IsDue reports whether the schedule should fire at the given time,
// respecting the optional active window.
func (s *WorkflowSchedule) IsDue(now time.Time) bool {
	if !s.Active || s.NextRunAt.After(now) {
		return false
	}

	if s.StartAt != nil && now.Before(*s.StartAt) {
		return false
	}

	if s.EndAt != nil && now.After(*s.EndAt) {
		return false
	}

	return true
}

// Validate checks the schedule fields, including the cron expression format.
func (s *WorkflowSchedule) Validate() error {
	if s.ID == "" || s.WorkflowID == "" || s.CronExpression == "" {
		return ErrInvalidSchedule
	}

	_, err := cronParser().Parse(s.CronExpression)

	return err
}
