package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutionStatusIsTerminal(t *testing.T) {
	assert.False(t, ExecutionStatusPending.IsTerminal())
	assert.False(t, ExecutionStatusRunning.IsTerminal())
	assert.False(t, ExecutionStatusPaused.IsTerminal())
	assert.True(t, ExecutionStatusCompleted.IsTerminal())
	assert.True(t, ExecutionStatusFailed.IsTerminal())
	assert.True(t, ExecutionStatusCancelled.IsTerminal())
}

func TestApplyVariablesReturnsFreshSnapshot(t *testing.T) {
	execution := &WorkflowExecution{
		Variables: map[string]any{"a": 1, "b": "old"},
	}

	first := execution.ApplyVariables(map[string]any{"b": "new", "c": true})

	assert.Equal(t, map[string]any{"a": 1, "b": "new", "c": true}, first)
	assert.Equal(t, first, execution.Variables)

	// A later merge must not mutate the earlier snapshot.
	second := execution.ApplyVariables(map[string]any{"c": false})

	assert.Equal(t, true, first["c"])
	assert.Equal(t, false, second["c"])
}

func TestApplyVariablesNeverShrinks(t *testing.T) {
	execution := &WorkflowExecution{
		Variables: map[string]any{"keep": "me"},
	}

	execution.ApplyVariables(map[string]any{"extra": 1})
	execution.ApplyVariables(nil)

	assert.Equal(t, "me", execution.Variables["keep"])
	assert.Equal(t, 1, execution.Variables["extra"])
}

func TestMergeVariablesPayloadWins(t *testing.T) {
	merged := MergeVariables(
		map[string]any{"region": "eu", "retries": 3},
		map[string]any{"region": "us"},
	)

	assert.Equal(t, "us", merged["region"])
	assert.Equal(t, 3, merged["retries"])
}

func TestVariablesSnapshotIsACopy(t *testing.T) {
	execution := &WorkflowExecution{Variables: map[string]any{"a": 1}}

	snapshot := execution.VariablesSnapshot()
	snapshot["a"] = 2

	assert.Equal(t, 1, execution.Variables["a"])
}
