package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/stepflow-io/stepflow/pkg/cmd"
	"github.com/stepflow-io/stepflow/pkg/engine"
	"github.com/stepflow-io/stepflow/pkg/log"
	"github.com/stepflow-io/stepflow/pkg/notify"
	"github.com/stepflow-io/stepflow/pkg/otelhelper"
)

func main() {
	command := &cli.Command{
		Name:                  "stepflow-worker",
		EnableShellCompletion: true,
		Usage:                 "Start workers to execute workflow nodes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "dispatcher",
				Usage:   "Work dispatcher type (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("DISPATCHER_TYPE"),
			},
			&cli.StringFlag{
				Name:    "notifier-url",
				Usage:   "Notification relay endpoint",
				Sources: cli.EnvVars("NOTIFIER_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("stepflow-worker").With("worker_id", workerID)
			logger.InfoContext(ctx, "Initializing Stepflow Worker")

			tracer, err := otelhelper.NewTracer(ctx, "stepflow-worker")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)
			}

			persistence := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			dispatcher := cmd.NewDispatcher(command.String("dispatcher"), "stepflow-worker", logger)
			defer func() {
				if err := dispatcher.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close dispatcher", "error", err)
				}
			}()

			notifier := notify.NewHTTPNotifier(command.String("notifier-url"))
			scheduler := engine.NewContinuationScheduler(logger, dispatcher)
			registry := cmd.NewRegistry(logger, persistence, notifier, scheduler)
			coordinator := engine.NewCoordinator(logger, persistence, registry, dispatcher, tracer)

			worker := NewWorker(workerID, logger, persistence, dispatcher, coordinator)

			return worker.Start(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
