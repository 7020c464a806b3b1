package condition

import (
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/protocol"
)

// Factory builds condition nodes.
type Factory struct{}

func (f *Factory) Kind() models.NodeKind { return models.NodeKindCondition }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"conditions"},
		"properties": map[string]any{
			"conditions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":     "object",
					"required": []any{"field", "operator"},
				},
			},
		},
	}
}

func (f *Factory) Create(node *models.WorkflowNode) (protocol.Node, error) {
	return NewConditionNode(node.ID, node.Config)
}
