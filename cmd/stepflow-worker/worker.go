package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/stepflow-io/stepflow/pkg/dispatch"
	"github.com/stepflow-io/stepflow/pkg/engine"
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
	"github.com/stepflow-io/stepflow/pkg/triggers/queue"
)

// Worker consumes the work queue and executes node activations. It also
// hosts the queue trigger adapters of event-triggered workflows, so pushing
// a message onto a configured Redis list starts an execution.
type Worker struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	dispatcher  dispatch.Dispatcher
	coordinator *engine.Coordinator
	triggers    []*queue.Trigger
}

func NewWorker(
	id string,
	logger *slog.Logger,
	store persistence.Persistence,
	dispatcher dispatch.Dispatcher,
	coordinator *engine.Coordinator,
) *Worker {
	return &Worker{
		id:          id,
		logger:      logger,
		persistence: store,
		dispatcher:  dispatcher,
		coordinator: coordinator,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := w.coordinator.RegisterHandlers(); err != nil {
		return err
	}

	if err := w.dispatcher.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to work queue", "error", err)

		return err
	}

	if err := w.startQueueTriggers(ctx); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	for _, trigger := range w.triggers {
		if err := trigger.Stop(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Failed to stop queue trigger", "error", err)
		}
	}

	cancel()

	return nil
}

// startQueueTriggers boots one Redis consumer per active event-triggered
// workflow that carries a queue trigger config.
func (w *Worker) startQueueTriggers(ctx context.Context) error {
	active := models.WorkflowStatusActive

	result, err := w.persistence.WorkflowRepository().ListWorkflows(ctx, persistence.ListWorkflowsOptions{
		Limit:  100,
		Status: &active,
	})
	if err != nil {
		return err
	}

	for _, workflow := range result.Workflows {
		if workflow.TriggerType != models.TriggerTypeEvent || workflow.TriggerConfig == nil {
			continue
		}

		if _, ok := workflow.TriggerConfig["queue"]; !ok {
			continue
		}

		trigger, err := queue.NewTrigger(ctx, workflow.ID, workflow.TriggerConfig, w.logger)
		if err != nil {
			w.logger.ErrorContext(ctx, "Skipping invalid queue trigger",
				"workflow_id", workflow.ID, "error", err)

			continue
		}

		err = trigger.Start(ctx, func(ctx context.Context, workflowID, triggeredBy string, subject models.Subject, payload map[string]any) error {
			_, err := w.coordinator.Trigger(ctx, workflowID, triggeredBy, subject, payload)

			return err
		})
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to start queue trigger",
				"workflow_id", workflow.ID, "error", err)

			continue
		}

		w.triggers = append(w.triggers, trigger)
	}

	return nil
}
