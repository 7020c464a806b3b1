package task

import (
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/protocol"
)

// Factory builds task nodes.
type Factory struct{}

func (f *Factory) Kind() models.NodeKind { return models.NodeKindTask }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"operation"},
		"properties": map[string]any{
			"operation": map[string]any{
				"type": "string",
				"enum": []any{OperationSetVariables, OperationTransform, OperationHTTPRequest},
			},
			"variables": map[string]any{"type": "object"},
			"input":     map[string]any{"type": "string"},
			"output":    map[string]any{"type": "string"},
			"url":       map[string]any{"type": "string"},
			"method":    map[string]any{"type": "string"},
			"headers":   map[string]any{"type": "object"},
			"body":      map[string]any{"type": "object"},
			"timeout_s": map[string]any{"type": "number", "minimum": 1, "maximum": 300},
		},
	}
}

func (f *Factory) Create(node *models.WorkflowNode) (protocol.Node, error) {
	return NewTaskNode(node.ID, node.Config)
}
