package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/stepflow-io/stepflow/pkg/cmd"
	"github.com/stepflow-io/stepflow/pkg/log"
	"github.com/stepflow-io/stepflow/pkg/scheduler"
)

func main() {
	command := &cli.Command{
		Name:                  "stepflow-scheduler",
		EnableShellCompletion: true,
		Usage:                 "Fire due workflow schedules",
		Flags: []cli.Flag{
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
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("stepflow-scheduler")
			logger.InfoContext(ctx, "Initializing Stepflow Scheduler")

			persistence := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			dispatcher := cmd.NewDispatcher(command.String("dispatcher"), "stepflow-scheduler", logger)
			defer func() {
				if err := dispatcher.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close dispatcher", "error", err)
				}
			}()

			poller := scheduler.NewScheduler(logger, persistence.ScheduleRepository(), dispatcher)
			if err := poller.Start(ctx); err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			<-sigChan
			logger.InfoContext(ctx, "Shutting down scheduler...")

			return poller.Stop(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
