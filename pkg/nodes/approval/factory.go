package approval

import (
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/notify"
	"github.com/stepflow-io/stepflow/pkg/persistence"
	"github.com/stepflow-io/stepflow/pkg/protocol"
)

// Factory builds approval nodes bound to the approval store and the
// notification collaborator.
type Factory struct {
	Approvals persistence.ApprovalRepository
	Notifier  notify.Notifier
}

func (f *Factory) Kind() models.NodeKind { return models.NodeKindApproval }

func (f *Factory) Schema() map[string]any {
	// approver_id is checked at execution time so a missing approver fails
	// the execution, not the activation.
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"approver_id": map[string]any{"type": "string"},
			"title":       map[string]any{"type": "string"},
			"message":     map[string]any{"type": "string"},
			"channel":     map[string]any{"type": "string"},
			"recipient":   map[string]any{"type": "string"},
		},
	}
}

func (f *Factory) Create(node *models.WorkflowNode) (protocol.Node, error) {
	return NewApprovalNode(node.ID, node.Config, f.Approvals, f.Notifier)
}
