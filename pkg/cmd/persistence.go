package cmd

import (
	"fmt"
	"strings"

	"github.com/stepflow-io/stepflow/pkg/persistence"
	"github.com/stepflow-io/stepflow/pkg/persistence/file"
	"github.com/stepflow-io/stepflow/pkg/persistence/postgresql"
)

// NewPersistence creates a persistence backend from a database URL. A
// postgres:// URL selects PostgreSQL; anything else is treated as a
// directory path for the file store.
func NewPersistence(databaseURL string) persistence.Persistence {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		store, err := postgresql.NewPersistence(databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to connect to postgres: %w", err))
		}

		return store
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
