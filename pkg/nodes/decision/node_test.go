package decision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow-io/stepflow/pkg/models"
)

func TestDecisionNodeRequiresCondition(t *testing.T) {
	_, err := NewDecisionNode("d1", map[string]any{})
	require.Error(t, err)

	_, err = NewDecisionNode("d1", map[string]any{
		"condition": map[string]any{"field": "x"},
	})
	require.Error(t, err)
}

func TestDecisionNodeExposesResult(t *testing.T) {
	node, err := NewDecisionNode("d1", map[string]any{
		"condition": map[string]any{
			"field":    "amount",
			"operator": "greater_than",
			"value":    100,
		},
	})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), models.ExecutionContext{
		Variables: map[string]any{"amount": 250.0},
	})
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, true, outcome.Variables["decision_result"])

	outcome, err = node.Execute(context.Background(), models.ExecutionContext{
		Variables: map[string]any{"amount": 10.0},
	})
	require.NoError(t, err)
	assert.Equal(t, false, outcome.Variables["decision_result"])
}
