// Package scheduler implements the centralized schedule poller: it queries
// the database for due schedules and publishes workflow triggers for them.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/stepflow-io/stepflow/pkg/dispatch"
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

const defaultPollInterval = 1 * time.Minute

// Scheduler polls for due schedules on a fixed interval and hands each one
// to the work queue as a workflow trigger. One poller covers all schedules
// regardless of their individual cron expressions; per-schedule state lives
// in the database, so restarting the poller loses nothing.
type Scheduler struct {
	logger       *slog.Logger
	schedules    persistence.ScheduleRepository
	dispatcher   dispatch.Dispatcher
	pollInterval time.Duration
	ticker       *time.Ticker
	done         chan struct{}
	started      bool
	mu           sync.Mutex
}

func NewScheduler(logger *slog.Logger, schedules persistence.ScheduleRepository, dispatcher dispatch.Dispatcher) *Scheduler {
	return &Scheduler{
		logger:       logger.With("module", "scheduler"),
		schedules:    schedules,
		dispatcher:   dispatcher,
		pollInterval: defaultPollInterval,
	}
}

// Start begins polling. It returns immediately; polling runs in a goroutine
// until Stop is called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.InfoContext(ctx, "Starting schedule poller", "poll_interval", s.pollInterval)

	s.ticker = time.NewTicker(s.pollInterval)
	s.done = make(chan struct{})
	s.started = true

	go s.poll(ctx)

	return nil
}

// Stop shuts the poller down.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.InfoContext(ctx, "Stopping schedule poller")
	s.ticker.Stop()
	close(s.done)
	s.started = false

	return nil
}

func (s *Scheduler) poll(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-s.ticker.C:
			s.ProcessDueSchedules(ctx)
		}
	}
}

// ProcessDueSchedules fires every schedule whose next run is at or before
// now. Each schedule is marked before its trigger is published, so a crash
// between the two drops at most one firing instead of double-firing it on
// restart.
func (s *Scheduler) ProcessDueSchedules(ctx context.Context) {
	now := time.Now().UTC()

	due, err := s.schedules.ListDue(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list due schedules", "error", err)

		return
	}

	if len(due) > 0 {
		s.logger.InfoContext(ctx, "Processing due schedules", "count", len(due))
	}

	for _, schedule := range due {
		if !schedule.IsDue(now) {
			continue
		}

		if err := s.fire(ctx, schedule, now); err != nil {
			s.logger.ErrorContext(ctx, "Failed to fire schedule",
				"schedule_id", schedule.ID, "workflow_id", schedule.WorkflowID, "error", err)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, schedule *models.WorkflowSchedule, now time.Time) error {
	scheduledFor := schedule.NextRunAt

	if err := schedule.MarkRun(now); err != nil {
		return err
	}

	if err := s.schedules.Save(ctx, schedule); err != nil {
		return err
	}

	msg := dispatch.WorkflowTrigger{
		BaseMessage: dispatch.BaseMessage{
			ID:        s.dispatcher.GenerateID(),
			Timestamp: now,
		},
		WorkflowID:  schedule.WorkflowID,
		TriggeredBy: "scheduler",
		Subject:     models.Subject{Type: "schedule", ID: schedule.ID},
		Payload: map[string]any{
			"scheduled_for":   scheduledFor.Format(time.RFC3339),
			"cron_expression": schedule.CronExpression,
		},
	}

	if err := s.dispatcher.Publish(ctx, schedule.WorkflowID, msg); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Schedule fired",
		"schedule_id", schedule.ID, "workflow_id", schedule.WorkflowID,
		"next_run_at", schedule.NextRunAt)

	return nil
}
