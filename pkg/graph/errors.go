package graph

import "strings"

// InvalidGraphError is raised when a workflow fails structural validation at
// activation time. It carries the full validator complaint list so operators
// can fix the graph without re-deriving state from logs.
type InvalidGraphError struct {
	WorkflowID string
	Errors     []string
}

func (e *InvalidGraphError) Error() string {
	return "workflow " + e.WorkflowID + " has an invalid graph: " + strings.Join(e.Errors, "; ")
}
