package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence/file"
)

func newTemplateService(t *testing.T) *Template {
	t.Helper()

	return NewTemplate(file.NewPersistence(t.TempDir()))
}

func publishRequest(name string) PublishTemplateRequest {
	nodes, connections := validGraph()

	return PublishTemplateRequest{
		Name:        name,
		Category:    "onboarding",
		Nodes:       nodes,
		Connections: connections,
		Variables:   map[string]any{"region": "eu"},
		CreatedBy:   "ada",
	}
}

func TestPublishFirstVersion(t *testing.T) {
	service := newTemplateService(t)

	template, err := service.Publish(context.Background(), publishRequest("welcome"))
	require.NoError(t, err)

	assert.Equal(t, 1, template.Version)
	assert.True(t, template.Active)
	assert.NotEmpty(t, template.ID)
}

func TestPublishSupersedesPreviousVersion(t *testing.T) {
	service := newTemplateService(t)

	v1, err := service.Publish(context.Background(), publishRequest("welcome"))
	require.NoError(t, err)

	v2, err := service.Publish(context.Background(), publishRequest("welcome"))
	require.NoError(t, err)

	assert.Equal(t, 2, v2.Version)
	assert.True(t, v2.Active)
	assert.NotEqual(t, v1.ID, v2.ID)

	// The old version survives, deactivated.
	old, err := service.FetchByID(context.Background(), v1.ID)
	require.NoError(t, err)
	assert.False(t, old.Active)

	all, err := service.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPublishRequiresName(t *testing.T) {
	service := newTemplateService(t)

	_, err := service.Publish(context.Background(), PublishTemplateRequest{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestInstantiateCreatesDraftFromTemplate(t *testing.T) {
	service := newTemplateService(t)

	template, err := service.Publish(context.Background(), publishRequest("welcome"))
	require.NoError(t, err)

	workflow, err := service.Instantiate(context.Background(), template.ID, "my welcome flow", "grace")
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusDraft, workflow.Status)
	assert.Equal(t, template.ID, workflow.TemplateID)
	assert.Equal(t, "my welcome flow", workflow.Name)
	assert.Equal(t, "grace", workflow.Owner)
	assert.Len(t, workflow.Nodes, len(template.Nodes))
	assert.Equal(t, map[string]any{"region": "eu"}, workflow.Variables)
}

func TestInstantiateDefaultsNameToTemplate(t *testing.T) {
	service := newTemplateService(t)

	template, err := service.Publish(context.Background(), publishRequest("welcome"))
	require.NoError(t, err)

	workflow, err := service.Instantiate(context.Background(), template.ID, "", "grace")
	require.NoError(t, err)
	assert.Equal(t, "welcome", workflow.Name)
}

func TestInstantiateClonesGraph(t *testing.T) {
	service := newTemplateService(t)

	template, err := service.Publish(context.Background(), publishRequest("welcome"))
	require.NoError(t, err)

	workflow, err := service.Instantiate(context.Background(), template.ID, "", "grace")
	require.NoError(t, err)

	// Mutating the workflow copy must not reach back into the template.
	workflow.Nodes[0].Name = "mutated"

	refetched, err := service.FetchByID(context.Background(), template.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", refetched.Nodes[0].Name)
}

func TestInstantiateRejectsInactiveTemplate(t *testing.T) {
	service := newTemplateService(t)

	v1, err := service.Publish(context.Background(), publishRequest("welcome"))
	require.NoError(t, err)

	_, err = service.Publish(context.Background(), publishRequest("welcome"))
	require.NoError(t, err)

	_, err = service.Instantiate(context.Background(), v1.ID, "", "grace")
	assert.ErrorIs(t, err, ErrTemplateInactive)
	assert.True(t, IsConflictError(err))
}

func TestInstantiateRequiresOwner(t *testing.T) {
	service := newTemplateService(t)

	template, err := service.Publish(context.Background(), publishRequest("welcome"))
	require.NoError(t, err)

	_, err = service.Instantiate(context.Background(), template.ID, "flow", "  ")
	assert.ErrorIs(t, err, ErrEmptyOwner)
}

func TestInstantiateUnknownTemplate(t *testing.T) {
	service := newTemplateService(t)

	_, err := service.Instantiate(context.Background(), "missing", "flow", "grace")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
