package models

import "time"

// WorkflowMetrics is a per-workflow, per-day rollup incremented as
// executions reach a terminal state. Derived data, append-only.
type WorkflowMetrics struct {
	WorkflowID      string    `json:"workflow_id"`
	Day             time.Time `json:"day"` // truncated to UTC midnight
	Executions      int64     `json:"executions"`
	Succeeded       int64     `json:"succeeded"`
	Failed          int64     `json:"failed"`
	Cancelled       int64     `json:"cancelled"`
	TotalDurationMs int64     `json:"total_duration_ms"`
}

// MetricsDay truncates a timestamp to the UTC day bucket used for rollups.
func MetricsDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// Record folds one terminal execution into the rollup.
func (m *WorkflowMetrics) Record(status ExecutionStatus, durationMs int64) {
	m.Executions++
	m.TotalDurationMs += durationMs

	switch status {
	case ExecutionStatusCompleted:
		m.Succeeded++
	case ExecutionStatusFailed:
		m.Failed++
	case ExecutionStatusCancelled:
		m.Cancelled++
	}
}
