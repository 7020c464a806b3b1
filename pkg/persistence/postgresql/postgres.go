// Package postgresql provides a PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/stepflow-io/stepflow/pkg/persistence"
	"github.com/stepflow-io/stepflow/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on a PostgreSQL database.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	workflows    *WorkflowRepository
	templates    *TemplateRepository
	executions   *ExecutionRepository
	logs         *ExecutionLogRepository
	approvals    *ApprovalRepository
	schedules    *ScheduleRepository
	integrations *IntegrationRepository
	metrics      *MetricsRepository
}

// NewPersistence connects to the database at databaseURL and runs schema
// migrations before returning.
func NewPersistence(databaseURL string) (*Persistence, error) {
	ctx := context.Background()
	logger := slog.Default().With("module", "postgresql")

	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:           database,
		logger:       logger,
		workflows:    &WorkflowRepository{db: database, logger: logger},
		templates:    &TemplateRepository{db: database, logger: logger},
		executions:   &ExecutionRepository{db: database, logger: logger},
		logs:         &ExecutionLogRepository{db: database, logger: logger},
		approvals:    &ApprovalRepository{db: database, logger: logger},
		schedules:    &ScheduleRepository{db: database, logger: logger},
		integrations: &IntegrationRepository{db: database, logger: logger},
		metrics:      &MetricsRepository{db: database, logger: logger},
	}, nil
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository { return p.workflows }
func (p *Persistence) TemplateRepository() persistence.TemplateRepository { return p.templates }
func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executions
}
func (p *Persistence) ExecutionLogRepository() persistence.ExecutionLogRepository { return p.logs }
func (p *Persistence) ApprovalRepository() persistence.ApprovalRepository         { return p.approvals }
func (p *Persistence) ScheduleRepository() persistence.ScheduleRepository         { return p.schedules }
func (p *Persistence) IntegrationRepository() persistence.IntegrationRepository {
	return p.integrations
}
func (p *Persistence) MetricsRepository() persistence.MetricsRepository { return p.metrics }

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db == nil {
		return nil
	}

	err := p.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	return nil
}

// marshalJSONB encodes v for a JSONB column. Nil maps become SQL NULL so
// scans round-trip to nil.
func marshalJSONB(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb value: %w", err)
	}

	if string(data) == "null" {
		return nil, nil //nolint:nilnil // SQL NULL
	}

	return data, nil
}

// unmarshalJSONB decodes a JSONB column into out, treating NULL as absent.
func unmarshalJSONB(data []byte, out any) error {
	if len(data) == 0 {
		return nil
	}

	err := json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("failed to unmarshal jsonb value: %w", err)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func closeRows(ctx context.Context, logger *slog.Logger, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}

// nullString converts an optional text value for storage.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullTimePtr converts an optional timestamp value for storage.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: *t, Valid: true}
}

// timePtr converts a scanned nullable timestamp back to a pointer.
func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	v := t.Time

	return &v
}
