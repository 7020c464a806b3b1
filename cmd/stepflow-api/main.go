package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/stepflow-io/stepflow/pkg/cmd"
	"github.com/stepflow-io/stepflow/pkg/engine"
	"github.com/stepflow-io/stepflow/pkg/log"
	"github.com/stepflow-io/stepflow/pkg/notify"
	"github.com/stepflow-io/stepflow/pkg/otelhelper"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "stepflow-api",
		Usage:                 "Create, manage, and trigger workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
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
				Value:   "gochannel",
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

			logger := log.WithModule("stepflow-api")
			logger.InfoContext(ctx, "Initializing Stepflow API")

			tracer, err := otelhelper.NewTracer(ctx, "stepflow-api")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)
			}

			persistence := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			dispatcher := cmd.NewDispatcher(command.String("dispatcher"), "stepflow-api", logger)
			defer func() {
				if err := dispatcher.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close dispatcher", "error", err)
				}
			}()

			notifier := notify.NewHTTPNotifier(command.String("notifier-url"))
			scheduler := engine.NewContinuationScheduler(logger, dispatcher)
			registry := cmd.NewRegistry(logger, persistence, notifier, scheduler)
			coordinator := engine.NewCoordinator(logger, persistence, registry, dispatcher, tracer)

			api := NewAPI(logger, persistence, registry, dispatcher, coordinator)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "API server stopped", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
