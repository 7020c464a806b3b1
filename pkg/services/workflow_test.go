package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow-io/stepflow/pkg/graph"
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/nodes/control"
	"github.com/stepflow-io/stepflow/pkg/nodes/task"
	"github.com/stepflow-io/stepflow/pkg/persistence/file"
	"github.com/stepflow-io/stepflow/pkg/registry"
)

func newWorkflowService(t *testing.T) *Workflow {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	reg.Register(&control.StartFactory{})
	reg.Register(&control.EndFactory{})
	reg.Register(&task.Factory{})

	return NewWorkflow(store, reg)
}

func validGraph() ([]*models.WorkflowNode, []*models.WorkflowConnection) {
	nodes := []*models.WorkflowNode{
		{ID: "start", Kind: models.NodeKindStart, Name: "start"},
		{ID: "work", Kind: models.NodeKindTask, Name: "work", Config: map[string]any{
			"operation": "set_variables",
			"variables": map[string]any{"done": true},
		}},
		{ID: "end", Kind: models.NodeKindEnd, Name: "end"},
	}
	connections := []*models.WorkflowConnection{
		{ID: "c1", SourceID: "start", TargetID: "work"},
		{ID: "c2", SourceID: "work", TargetID: "end"},
	}

	return nodes, connections
}

func TestCreateWorkflowDefaults(t *testing.T) {
	service := newWorkflowService(t)

	workflow, err := service.Create(context.Background(), CreateWorkflowRequest{
		Name:  "my workflow",
		Owner: "ada",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, workflow.ID)
	assert.Equal(t, models.WorkflowStatusDraft, workflow.Status)
	assert.Equal(t, models.TriggerTypeManual, workflow.TriggerType)
	assert.Empty(t, workflow.Nodes)
}

func TestCreateWorkflowValidation(t *testing.T) {
	service := newWorkflowService(t)

	_, err := service.Create(context.Background(), CreateWorkflowRequest{Name: "  ", Owner: "ada"})
	assert.ErrorIs(t, err, ErrWorkflowNameRequired)

	_, err = service.Create(context.Background(), CreateWorkflowRequest{Name: "valid name"})
	assert.ErrorIs(t, err, ErrEmptyOwner)
}

func TestReplaceGraphDraftOnly(t *testing.T) {
	service := newWorkflowService(t)

	workflow, err := service.Create(context.Background(), CreateWorkflowRequest{Name: "wf", Owner: "ada"})
	require.NoError(t, err)

	nodes, connections := validGraph()

	updated, err := service.ReplaceGraph(context.Background(), workflow.ID, nodes, connections)
	require.NoError(t, err)
	assert.Len(t, updated.Nodes, 3)

	_, err = service.Activate(context.Background(), workflow.ID)
	require.NoError(t, err)

	_, err = service.ReplaceGraph(context.Background(), workflow.ID, nodes, connections)
	assert.ErrorIs(t, err, ErrNotDraft)
	assert.True(t, IsConflictError(err))
}

func TestActivateRejectsInvalidGraph(t *testing.T) {
	service := newWorkflowService(t)

	workflow, err := service.Create(context.Background(), CreateWorkflowRequest{Name: "wf", Owner: "ada"})
	require.NoError(t, err)

	// No graph at all: missing start and end.
	_, err = service.Activate(context.Background(), workflow.ID)

	var invalid *graph.InvalidGraphError

	require.ErrorAs(t, err, &invalid)
	assert.NotEmpty(t, invalid.Errors)

	refetched, err := service.FetchByID(context.Background(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusDraft, refetched.Status)
}

func TestActivateRejectsBadNodeConfig(t *testing.T) {
	service := newWorkflowService(t)

	workflow, err := service.Create(context.Background(), CreateWorkflowRequest{Name: "wf", Owner: "ada"})
	require.NoError(t, err)

	nodes, connections := validGraph()
	nodes[1].Config = map[string]any{"operation": "teleport"}

	_, err = service.ReplaceGraph(context.Background(), workflow.ID, nodes, connections)
	require.NoError(t, err)

	_, err = service.Activate(context.Background(), workflow.ID)

	var invalid *graph.InvalidGraphError

	require.ErrorAs(t, err, &invalid)
}

func TestLifecycleTransitions(t *testing.T) {
	service := newWorkflowService(t)

	workflow, err := service.Create(context.Background(), CreateWorkflowRequest{Name: "wf", Owner: "ada"})
	require.NoError(t, err)

	nodes, connections := validGraph()
	_, err = service.ReplaceGraph(context.Background(), workflow.ID, nodes, connections)
	require.NoError(t, err)

	activated, err := service.Activate(context.Background(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusActive, activated.Status)
	assert.NotNil(t, activated.ActivatedAt)

	paused, err := service.Pause(context.Background(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusPaused, paused.Status)

	// Paused workflows re-activate through validation.
	_, err = service.Activate(context.Background(), workflow.ID)
	require.NoError(t, err)

	archived, err := service.Archive(context.Background(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusArchived, archived.Status)

	// Archived is terminal.
	_, err = service.Activate(context.Background(), workflow.ID)
	assert.ErrorIs(t, err, ErrInvalidLifecycle)

	_, err = service.Pause(context.Background(), workflow.ID)
	assert.ErrorIs(t, err, ErrInvalidLifecycle)
}

func TestPauseRequiresActive(t *testing.T) {
	service := newWorkflowService(t)

	workflow, err := service.Create(context.Background(), CreateWorkflowRequest{Name: "wf", Owner: "ada"})
	require.NoError(t, err)

	_, err = service.Pause(context.Background(), workflow.ID)
	assert.ErrorIs(t, err, ErrInvalidLifecycle)
}

func TestDeleteDraftOnly(t *testing.T) {
	service := newWorkflowService(t)

	workflow, err := service.Create(context.Background(), CreateWorkflowRequest{Name: "wf", Owner: "ada"})
	require.NoError(t, err)

	nodes, connections := validGraph()
	_, err = service.ReplaceGraph(context.Background(), workflow.ID, nodes, connections)
	require.NoError(t, err)
	_, err = service.Activate(context.Background(), workflow.ID)
	require.NoError(t, err)

	err = service.Delete(context.Background(), workflow.ID)
	assert.ErrorIs(t, err, ErrInvalidLifecycle)

	draft, err := service.Create(context.Background(), CreateWorkflowRequest{Name: "wf2", Owner: "ada"})
	require.NoError(t, err)
	require.NoError(t, service.Delete(context.Background(), draft.ID))

	_, err = service.FetchByID(context.Background(), draft.ID)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestUpdateWorkflowMetadata(t *testing.T) {
	service := newWorkflowService(t)

	workflow, err := service.Create(context.Background(), CreateWorkflowRequest{Name: "wf", Owner: "ada"})
	require.NoError(t, err)

	name := "renamed"
	description := "new description"

	updated, err := service.Update(context.Background(), workflow.ID, UpdateWorkflowRequest{
		Name:        &name,
		Description: &description,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "new description", updated.Description)
	assert.Equal(t, "ada", updated.Owner)
}

func TestListWorkflowsPagination(t *testing.T) {
	service := newWorkflowService(t)

	for _, name := range []string{"one", "two", "three"} {
		_, err := service.Create(context.Background(), CreateWorkflowRequest{Name: name, Owner: "ada"})
		require.NoError(t, err)
	}

	result, err := service.List(context.Background(), ListWorkflowsRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, result.Workflows, 2)
	assert.Equal(t, int64(3), result.TotalCount)
	assert.True(t, result.HasNextPage)

	result, err = service.List(context.Background(), ListWorkflowsRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, result.Workflows, 1)
	assert.False(t, result.HasNextPage)
}
