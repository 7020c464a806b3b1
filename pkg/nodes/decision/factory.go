package decision

import (
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/protocol"
)

// Factory builds decision nodes.
type Factory struct{}

func (f *Factory) Kind() models.NodeKind { return models.NodeKindDecision }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"condition"},
		"properties": map[string]any{
			"condition": conditionSchema(),
		},
	}
}

func (f *Factory) Create(node *models.WorkflowNode) (protocol.Node, error) {
	return NewDecisionNode(node.ID, node.Config)
}

func conditionSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"field", "operator"},
		"properties": map[string]any{
			"field": map[string]any{"type": "string"},
			"operator": map[string]any{
				"type": "string",
				"enum": []any{
					models.OperatorEquals,
					models.OperatorNotEquals,
					models.OperatorGreaterThan,
					models.OperatorLessThan,
					models.OperatorContains,
				},
			},
			"value": map[string]any{},
		},
	}
}
