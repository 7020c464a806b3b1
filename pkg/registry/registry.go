// Package registry maps node kinds to their factories and validates
// node configurations against the factories' JSON schemas.
package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/protocol"
)

type Registry struct {
	logger    *slog.Logger
	factories map[models.NodeKind]protocol.NodeFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:    log,
		factories: make(map[models.NodeKind]protocol.NodeFactory),
	}
}

func (r *Registry) Register(factory protocol.NodeFactory) {
	r.factories[factory.Kind()] = factory
}

// Create instantiates the executor for one workflow node. Reserved kinds
// resolve to fail-fast executors that surface NotImplementedError.
func (r *Registry) Create(node *models.WorkflowNode) (protocol.Node, error) {
	factory, ok := r.factories[node.Kind]
	if !ok {
		return nil, fmt.Errorf("node kind '%s' not registered", node.Kind)
	}

	return factory.Create(node)
}

// ValidateConfigs checks every node config of the workflow against the
// schema published by its factory. It returns one error message per
// violation so callers can report them all at once.
func (r *Registry) ValidateConfigs(workflow *models.Workflow) []string {
	var errs []string

	for _, node := range workflow.Nodes {
		if node.Kind.IsReserved() {
			errs = append(errs, fmt.Sprintf("node '%s': kind '%s' is reserved and not yet supported", node.ID, node.Kind))

			continue
		}

		factory, ok := r.factories[node.Kind]
		if !ok {
			errs = append(errs, fmt.Sprintf("node '%s': unknown kind '%s'", node.ID, node.Kind))

			continue
		}

		schema := factory.Schema()
		if schema == nil {
			continue
		}

		if err := validateJSONSchema(node.Config, schema); err != nil {
			errs = append(errs, fmt.Sprintf("node '%s': %s", node.ID, err))
		}
	}

	return errs
}

func validateJSONSchema(config map[string]any, schema map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)

	if config == nil {
		config = map[string]any{}
	}

	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
	}

	return nil
}
