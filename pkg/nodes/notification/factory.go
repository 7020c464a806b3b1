package notification

import (
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/notify"
	"github.com/stepflow-io/stepflow/pkg/protocol"
)

// Factory builds notification nodes bound to the external notifier.
type Factory struct {
	Notifier notify.Notifier
}

func (f *Factory) Kind() models.NodeKind { return models.NodeKindNotification }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"recipients", "body"},
		"properties": map[string]any{
			"channel":    map[string]any{"type": "string"},
			"recipients": map[string]any{"type": "array", "minItems": 1, "items": map[string]any{"type": "string"}},
			"subject":    map[string]any{"type": "string"},
			"body":       map[string]any{"type": "string"},
		},
	}
}

func (f *Factory) Create(node *models.WorkflowNode) (protocol.Node, error) {
	return NewNotificationNode(node.ID, node.Config, f.Notifier)
}
