package control

import (
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/protocol"
)

// StartFactory builds start nodes.
type StartFactory struct{}

func (f *StartFactory) Kind() models.NodeKind { return models.NodeKindStart }

func (f *StartFactory) Schema() map[string]any {
	return map[string]any{"type": "object"}
}

func (f *StartFactory) Create(node *models.WorkflowNode) (protocol.Node, error) {
	return NewStartNode(node.ID), nil
}

// EndFactory builds end nodes.
type EndFactory struct{}

func (f *EndFactory) Kind() models.NodeKind { return models.NodeKindEnd }

func (f *EndFactory) Schema() map[string]any {
	return map[string]any{"type": "object"}
}

func (f *EndFactory) Create(node *models.WorkflowNode) (protocol.Node, error) {
	return NewEndNode(node.ID), nil
}

// ReservedFactory builds fail-fast executors for one reserved kind.
type ReservedFactory struct {
	NodeKind models.NodeKind
}

func (f *ReservedFactory) Kind() models.NodeKind { return f.NodeKind }

func (f *ReservedFactory) Schema() map[string]any {
	return map[string]any{"type": "object"}
}

func (f *ReservedFactory) Create(node *models.WorkflowNode) (protocol.Node, error) {
	return NewReservedNode(node.ID, f.NodeKind), nil
}
