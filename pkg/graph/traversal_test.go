package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow-io/stepflow/pkg/models"
)

func branchingWorkflow() *models.Workflow {
	return &models.Workflow{
		ID: "wf1",
		Nodes: []*models.WorkflowNode{
			node("start", models.NodeKindStart),
			node("check", models.NodeKindDecision),
			node("high", models.NodeKindTask),
			node("low", models.NodeKindTask),
			node("end", models.NodeKindEnd),
		},
		Connections: []*models.WorkflowConnection{
			connect("start", "check"),
			{
				ID:       "check->high",
				SourceID: "check",
				TargetID: "high",
				Condition: &models.Condition{
					Field:    "amount",
					Operator: models.OperatorGreaterThan,
					Value:    1000,
				},
			},
			connect("check", "low"),
			connect("high", "end"),
			connect("low", "end"),
		},
	}
}

func TestNextNodeFollowsMatchingCondition(t *testing.T) {
	workflow := branchingWorkflow()

	next := NextNode(workflow, "check", map[string]any{"amount": 5000.0})
	require.NotNil(t, next)
	assert.Equal(t, "high", next.ID)
}

func TestNextNodeFallsBackToUnconditioned(t *testing.T) {
	workflow := branchingWorkflow()

	next := NextNode(workflow, "check", map[string]any{"amount": 10.0})
	require.NotNil(t, next)
	assert.Equal(t, "low", next.ID)
}

func TestNextNodeFirstMatchWinsInDeclarationOrder(t *testing.T) {
	workflow := &models.Workflow{
		Nodes: []*models.WorkflowNode{
			node("d", models.NodeKindDecision),
			node("a", models.NodeKindTask),
			node("b", models.NodeKindTask),
		},
		Connections: []*models.WorkflowConnection{
			{
				ID: "d->a", SourceID: "d", TargetID: "a",
				Condition: &models.Condition{Field: "x", Operator: models.OperatorEquals, Value: 1},
			},
			{
				ID: "d->b", SourceID: "d", TargetID: "b",
				Condition: &models.Condition{Field: "x", Operator: models.OperatorEquals, Value: 1},
			},
		},
	}

	next := NextNode(workflow, "d", map[string]any{"x": 1})
	require.NotNil(t, next)
	assert.Equal(t, "a", next.ID)
}

func TestNextNodeDeadEnd(t *testing.T) {
	workflow := branchingWorkflow()

	assert.Nil(t, NextNode(workflow, "end", nil))
}

func TestNextNodeNoMatchAndNoFallback(t *testing.T) {
	workflow := &models.Workflow{
		Nodes: []*models.WorkflowNode{
			node("d", models.NodeKindDecision),
			node("a", models.NodeKindTask),
		},
		Connections: []*models.WorkflowConnection{
			{
				ID: "d->a", SourceID: "d", TargetID: "a",
				Condition: &models.Condition{Field: "x", Operator: models.OperatorEquals, Value: 1},
			},
		},
	}

	assert.Nil(t, NextNode(workflow, "d", map[string]any{"x": 2}))
}
