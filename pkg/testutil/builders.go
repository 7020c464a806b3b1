package testutil

import (
	"time"

	"github.com/stepflow-io/stepflow/pkg/models"
)

// WorkflowBuilder assembles workflow graphs for tests.
type WorkflowBuilder struct {
	workflow *models.Workflow
}

func NewWorkflow(id string) *WorkflowBuilder {
	now := time.Now().UTC()

	return &WorkflowBuilder{
		workflow: &models.Workflow{
			ID:          id,
			Name:        "workflow " + id,
			Status:      models.WorkflowStatusActive,
			TriggerType: models.TriggerTypeManual,
			Owner:       "tester",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

func (b *WorkflowBuilder) Name(name string) *WorkflowBuilder {
	b.workflow.Name = name

	return b
}

func (b *WorkflowBuilder) Status(status models.WorkflowStatus) *WorkflowBuilder {
	b.workflow.Status = status

	return b
}

func (b *WorkflowBuilder) Variables(variables map[string]any) *WorkflowBuilder {
	b.workflow.Variables = variables

	return b
}

func (b *WorkflowBuilder) Node(id string, kind models.NodeKind, config map[string]any) *WorkflowBuilder {
	b.workflow.Nodes = append(b.workflow.Nodes, &models.WorkflowNode{
		ID:     id,
		Kind:   kind,
		Name:   id,
		Config: config,
	})

	return b
}

func (b *WorkflowBuilder) Connect(sourceID, targetID string) *WorkflowBuilder {
	return b.ConnectIf(sourceID, targetID, nil)
}

func (b *WorkflowBuilder) ConnectIf(sourceID, targetID string, condition *models.Condition) *WorkflowBuilder {
	b.workflow.Connections = append(b.workflow.Connections, &models.WorkflowConnection{
		ID:        sourceID + "->" + targetID,
		SourceID:  sourceID,
		TargetID:  targetID,
		Condition: condition,
	})

	return b
}

func (b *WorkflowBuilder) Build() *models.Workflow {
	return b.workflow
}

// LinearWorkflow builds an active start -> task -> end graph, the minimal
// executable shape.
func LinearWorkflow(id string) *models.Workflow {
	return NewWorkflow(id).
		Node("start", models.NodeKindStart, nil).
		Node("work", models.NodeKindTask, map[string]any{
			"operation": "set_variables",
			"variables": map[string]any{"worked": true},
		}).
		Node("end", models.NodeKindEnd, nil).
		Connect("start", "work").
		Connect("work", "end").
		Build()
}
