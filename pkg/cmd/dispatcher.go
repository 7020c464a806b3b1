// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/stepflow-io/stepflow/pkg/dispatch"
	"github.com/stepflow-io/stepflow/pkg/dispatch/channels/gochannel"
	"github.com/stepflow-io/stepflow/pkg/dispatch/channels/kafka"
)

// NewDispatcher creates a work dispatcher backed by the named provider:
// "kafka" for production, "gochannel" for local development.
func NewDispatcher(provider, serviceName string, logger *slog.Logger) dispatch.Dispatcher {
	watermillLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermillLogger, serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return dispatch.NewWatermillDispatcher(pub, sub)
	case "gochannel", "":
		pub, sub, err := gochannel.CreateChannel(watermillLogger)
		if err != nil {
			panic(fmt.Errorf("failed to create GoChannel pub/sub: %w", err))
		}

		return dispatch.NewWatermillDispatcher(pub, sub)
	default:
		panic("Unsupported dispatcher provider: " + provider)
	}
}
