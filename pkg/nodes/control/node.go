// Package control implements the structural node kinds: start, end, and the
// reserved forward-compatible kinds.
package control

import (
	"context"

	"github.com/stepflow-io/stepflow/pkg/models"
)

// StartNode is a pass-through entry point: it always succeeds and continues
// traversal without touching the variable map.
type StartNode struct {
	id string
}

func NewStartNode(id string) *StartNode {
	return &StartNode{id: id}
}

func (n *StartNode) ID() string            { return n.id }
func (n *StartNode) Kind() models.NodeKind { return models.NodeKindStart }

func (n *StartNode) Execute(_ context.Context, _ models.ExecutionContext) (*models.NodeOutcome, error) {
	return models.SuccessOutcome(nil), nil
}

// EndNode marks the execution completed.
type EndNode struct {
	id string
}

func NewEndNode(id string) *EndNode {
	return &EndNode{id: id}
}

func (n *EndNode) ID() string            { return n.id }
func (n *EndNode) Kind() models.NodeKind { return models.NodeKindEnd }

func (n *EndNode) Execute(_ context.Context, _ models.ExecutionContext) (*models.NodeOutcome, error) {
	return &models.NodeOutcome{Success: true, EndExecution: true}, nil
}

// ReservedNode exists for the loop, parallel, and merge kinds. These are
// declared in the data model but have no executor behavior yet, so running
// one fails fast instead of silently acting like a task.
type ReservedNode struct {
	id   string
	kind models.NodeKind
}

func NewReservedNode(id string, kind models.NodeKind) *ReservedNode {
	return &ReservedNode{id: id, kind: kind}
}

func (n *ReservedNode) ID() string            { return n.id }
func (n *ReservedNode) Kind() models.NodeKind { return n.kind }

func (n *ReservedNode) Execute(_ context.Context, _ models.ExecutionContext) (*models.NodeOutcome, error) {
	return nil, &models.NotImplementedError{Kind: n.kind}
}
