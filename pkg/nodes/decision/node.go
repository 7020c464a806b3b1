// Package decision implements the decision node kind: it evaluates one
// configured condition and exposes the result as the decision_result
// variable. Branching happens in the connection conditions reading it.
package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stepflow-io/stepflow/pkg/models"
)

// Config is the typed configuration of a decision node.
type Config struct {
	Condition models.Condition `json:"condition"`
}

type DecisionNode struct {
	id     string
	config Config
}

func NewDecisionNode(id string, raw map[string]any) (*DecisionNode, error) {
	var config Config

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(encoded, &config); err != nil {
		return nil, fmt.Errorf("malformed decision config: %w", err)
	}

	if config.Condition.Field == "" || config.Condition.Operator == "" {
		return nil, errors.New("decision node requires a condition with field and operator")
	}

	return &DecisionNode{id: id, config: config}, nil
}

func (n *DecisionNode) ID() string            { return n.id }
func (n *DecisionNode) Kind() models.NodeKind { return models.NodeKindDecision }

func (n *DecisionNode) Execute(_ context.Context, ectx models.ExecutionContext) (*models.NodeOutcome, error) {
	result := n.config.Condition.Evaluate(ectx.Variables)

	return models.SuccessOutcome(map[string]any{"decision_result": result}), nil
}
