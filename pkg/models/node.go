package models

// NodeKind is the behavioral type of a workflow step.
type NodeKind string

const (
	NodeKindStart        NodeKind = "start"
	NodeKindEnd          NodeKind = "end"
	NodeKindTask         NodeKind = "task"
	NodeKindDecision     NodeKind = "decision"
	NodeKindApproval     NodeKind = "approval"
	NodeKindNotification NodeKind = "notification"
	NodeKindIntegration  NodeKind = "integration"
	NodeKindDelay        NodeKind = "delay"
	NodeKindCondition    NodeKind = "condition"

	// Reserved kinds. Present in the data model for forward compatibility,
	// executing one fails with NotImplementedError.
	NodeKindLoop     NodeKind = "loop"
	NodeKindParallel NodeKind = "parallel"
	NodeKindMerge    NodeKind = "merge"
)

// ReservedNodeKinds lists kinds that are accepted by the data model but have
// no executor behavior yet.
var ReservedNodeKinds = []NodeKind{NodeKindLoop, NodeKindParallel, NodeKindMerge}

// IsReserved reports whether the kind is declared but not executable.
func (k NodeKind) IsReserved() bool {
	for _, r := range ReservedNodeKinds {
		if k == r {
			return true
		}
	}

	return false
}

// WorkflowNode represents one step in a workflow graph.
//
// Config is the raw kind-specific configuration document. It is validated
// and decoded into a typed per-kind config at activation time, not re-parsed
// on every execution.
type WorkflowNode struct {
	ID        string         `json:"id"   validate:"required"`
	Kind      NodeKind       `json:"kind" validate:"required"`
	Name      string         `json:"name" validate:"required,min=1"`
	Config    map[string]any `json:"config,omitempty"`
	PositionX int            `json:"position_x"` // presentation only
	PositionY int            `json:"position_y"` // presentation only
}

// WorkflowConnection is a directed edge between two nodes. A nil Condition
// means the edge is unconditional (always followed when reached).
type WorkflowConnection struct {
	ID        string     `json:"id"`
	SourceID  string     `json:"source_id" validate:"required"`
	TargetID  string     `json:"target_id" validate:"required"`
	Label     string     `json:"label,omitempty"`
	Condition *Condition `json:"condition,omitempty"`
}

// NodeOutcome is the uniform result every node executor reports back to the
// coordinator.
type NodeOutcome struct {
	Success        bool           `json:"success"`
	Variables      map[string]any `json:"variables,omitempty"`
	Error          string         `json:"error,omitempty"`
	PauseExecution bool           `json:"pause_execution,omitempty"`
	EndExecution   bool           `json:"end_execution,omitempty"`
}

// SuccessOutcome builds a continuing successful outcome carrying derived
// variables.
func SuccessOutcome(variables map[string]any) *NodeOutcome {
	return &NodeOutcome{Success: true, Variables: variables}
}

// FailureOutcome builds a fatal outcome with the given error message.
func FailureOutcome(message string) *NodeOutcome {
	return &NodeOutcome{Success: false, Error: message}
}
