package delay

import (
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/protocol"
)

// Factory builds delay nodes bound to the continuation scheduler.
type Factory struct {
	Scheduler protocol.DelayScheduler
}

func (f *Factory) Kind() models.NodeKind { return models.NodeKindDelay }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"duration"},
		"properties": map[string]any{
			"duration": map[string]any{
				"oneOf": []any{
					map[string]any{"type": "string"},
					map[string]any{"type": "number", "exclusiveMinimum": 0},
				},
			},
		},
	}
}

func (f *Factory) Create(node *models.WorkflowNode) (protocol.Node, error) {
	return NewDelayNode(node.ID, node.Config, f.Scheduler)
}
