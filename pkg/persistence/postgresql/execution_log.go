package postgresql

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// ExecutionLogRepository handles the append-only execution audit log.
type ExecutionLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *ExecutionLogRepository) Append(ctx context.Context, entry *models.ExecutionLogEntry) error {
	data, err := marshalJSONB(entry.Data)
	if err != nil {
		return persistence.NewStoreError("Append", "execution_log", entry.ID, err)
	}

	query := `
		INSERT INTO execution_logs (
			id, execution_id, node_id, level, message, data, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ExecutionID,
		nullString(entry.NodeID),
		string(entry.Level),
		entry.Message,
		data,
		entry.Timestamp,
	)
	if err != nil {
		return persistence.NewStoreError("Append", "execution_log", entry.ID, err)
	}

	return nil
}

func (r *ExecutionLogRepository) ListByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLogEntry, error) {
	query := `
		SELECT
			id
		  , execution_id
		  , node_id
		  , level
		  , message
		  , data
		  , created_at
		FROM execution_logs
		WHERE execution_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, persistence.NewStoreError("ListByExecution", "execution_log", executionID, err)
	}

	defer closeRows(ctx, r.logger, rows)

	entries := make([]*models.ExecutionLogEntry, 0)

	for rows.Next() {
		var (
			entry  models.ExecutionLogEntry
			nodeID sql.NullString
			data   []byte
		)

		err := rows.Scan(
			&entry.ID,
			&entry.ExecutionID,
			&nodeID,
			&entry.Level,
			&entry.Message,
			&data,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, persistence.NewStoreError("ListByExecution", "execution_log", executionID, err)
		}

		entry.NodeID = nodeID.String

		if err := unmarshalJSONB(data, &entry.Data); err != nil {
			return nil, persistence.NewStoreError("ListByExecution", "execution_log", executionID, err)
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStoreError("ListByExecution", "execution_log", executionID, err)
	}

	return entries, nil
}
