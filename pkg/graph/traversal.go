package graph

import "github.com/stepflow-io/stepflow/pkg/models"

// NextNode selects the node traversal moves to after nodeID, given the
// current variable map. Outgoing connections are evaluated in declaration
// order: the first connection whose condition evaluates true wins, and when
// none match, the first unconditioned connection is followed. A nil return
// means the traversal reached a dead end.
//
// Given a fixed variable map and declaration order the choice is
// deterministic.
func NextNode(workflow *models.Workflow, nodeID string, variables map[string]any) *models.WorkflowNode {
	var fallback *models.WorkflowConnection

	for _, conn := range workflow.OutgoingConnections(nodeID) {
		if conn.Condition.IsEmpty() {
			if fallback == nil {
				fallback = conn
			}

			continue
		}

		if conn.Condition.Evaluate(variables) {
			return workflow.NodeByID(conn.TargetID)
		}
	}

	if fallback != nil {
		return workflow.NodeByID(fallback.TargetID)
	}

	return nil
}
