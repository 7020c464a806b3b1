// Package condition implements the condition node kind: it evaluates a list
// of configured conditions and exposes the boolean results as the
// condition_results variable.
package condition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stepflow-io/stepflow/pkg/models"
)

// Config is the typed configuration of a condition node.
type Config struct {
	Conditions []models.Condition `json:"conditions"`
}

type ConditionNode struct {
	id     string
	config Config
}

func NewConditionNode(id string, raw map[string]any) (*ConditionNode, error) {
	var config Config

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(encoded, &config); err != nil {
		return nil, fmt.Errorf("malformed condition config: %w", err)
	}

	if len(config.Conditions) == 0 {
		return nil, errors.New("condition node requires at least one condition")
	}

	return &ConditionNode{id: id, config: config}, nil
}

func (n *ConditionNode) ID() string            { return n.id }
func (n *ConditionNode) Kind() models.NodeKind { return models.NodeKindCondition }

func (n *ConditionNode) Execute(_ context.Context, ectx models.ExecutionContext) (*models.NodeOutcome, error) {
	results := make([]bool, len(n.config.Conditions))
	for i := range n.config.Conditions {
		results[i] = n.config.Conditions[i].Evaluate(ectx.Variables)
	}

	return models.SuccessOutcome(map[string]any{"condition_results": results}), nil
}
