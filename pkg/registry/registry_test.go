package registry

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/nodes/control"
	"github.com/stepflow-io/stepflow/pkg/nodes/task"
)

func newTestRegistry() *Registry {
	reg := NewRegistry(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	reg.Register(&control.StartFactory{})
	reg.Register(&control.EndFactory{})
	reg.Register(&task.Factory{})

	for _, kind := range models.ReservedNodeKinds {
		reg.Register(&control.ReservedFactory{NodeKind: kind})
	}

	return reg
}

func TestCreateKnownKind(t *testing.T) {
	reg := newTestRegistry()

	node, err := reg.Create(&models.WorkflowNode{ID: "s", Kind: models.NodeKindStart, Name: "s"})
	require.NoError(t, err)
	assert.Equal(t, models.NodeKindStart, node.Kind())
}

func TestCreateUnknownKindFails(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Create(&models.WorkflowNode{ID: "x", Kind: "teleport", Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestCreateReservedKindYieldsFailFastExecutor(t *testing.T) {
	reg := newTestRegistry()

	node, err := reg.Create(&models.WorkflowNode{ID: "p", Kind: models.NodeKindParallel, Name: "p"})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), models.ExecutionContext{})

	var notImplemented *models.NotImplementedError

	require.ErrorAs(t, err, &notImplemented)
	assert.Equal(t, models.NodeKindParallel, notImplemented.Kind)
}

func TestValidateConfigs(t *testing.T) {
	reg := newTestRegistry()

	workflow := &models.Workflow{
		ID: "wf1",
		Nodes: []*models.WorkflowNode{
			{ID: "start", Kind: models.NodeKindStart, Name: "start"},
			{ID: "good", Kind: models.NodeKindTask, Name: "good", Config: map[string]any{
				"operation": "set_variables",
				"variables": map[string]any{"a": 1},
			}},
			{ID: "end", Kind: models.NodeKindEnd, Name: "end"},
		},
	}

	assert.Empty(t, reg.ValidateConfigs(workflow))
}

func TestValidateConfigsReportsEveryViolation(t *testing.T) {
	reg := newTestRegistry()

	workflow := &models.Workflow{
		ID: "wf1",
		Nodes: []*models.WorkflowNode{
			{ID: "bad", Kind: models.NodeKindTask, Name: "bad", Config: map[string]any{
				"operation": "teleport",
			}},
			{ID: "mystery", Kind: "mystery", Name: "mystery"},
			{ID: "future", Kind: models.NodeKindLoop, Name: "future"},
		},
	}

	errs := reg.ValidateConfigs(workflow)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "node 'bad'")
	assert.Contains(t, errs[1], "unknown kind 'mystery'")
	assert.Contains(t, errs[2], "reserved")
}

func TestValidateConfigsNilConfigAgainstSchema(t *testing.T) {
	reg := newTestRegistry()

	// A task with no config at all violates the required operation field.
	workflow := &models.Workflow{
		ID: "wf1",
		Nodes: []*models.WorkflowNode{
			{ID: "empty", Kind: models.NodeKindTask, Name: "empty"},
		},
	}

	errs := reg.ValidateConfigs(workflow)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "operation")
}
