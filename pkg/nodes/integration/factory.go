package integration

import (
	"github.com/stepflow-io/stepflow/pkg/integration"
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
	"github.com/stepflow-io/stepflow/pkg/protocol"
)

// Factory builds integration nodes bound to the integration store and the
// outbound HTTP client.
type Factory struct {
	Integrations persistence.IntegrationRepository
	Client       *integration.Client
}

func (f *Factory) Kind() models.NodeKind { return models.NodeKindIntegration }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"integration_id"},
		"properties": map[string]any{
			"integration_id": map[string]any{"type": "string"},
			"mode":           map[string]any{"type": "string", "enum": []any{"rest", "webhook"}},
			"method":         map[string]any{"type": "string"},
			"path":           map[string]any{"type": "string"},
			"headers":        map[string]any{"type": "object"},
			"payload":        map[string]any{"type": "object"},
		},
	}
}

func (f *Factory) Create(node *models.WorkflowNode) (protocol.Node, error) {
	return NewIntegrationNode(node.ID, node.Config, f.Integrations, f.Client)
}
