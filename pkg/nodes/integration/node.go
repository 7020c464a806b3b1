// Package integration implements the integration node kind: it resolves an
// integration descriptor and performs the configured REST call or webhook
// post with variable substitution over the payload.
package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stepflow-io/stepflow/pkg/integration"
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
	"github.com/stepflow-io/stepflow/pkg/template"
)

// Config is the typed configuration of an integration node.
type Config struct {
	IntegrationID string            `json:"integration_id"`
	Mode          string            `json:"mode,omitempty"` // rest (default) or webhook
	Method        string            `json:"method,omitempty"`
	Path          string            `json:"path,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	Payload       map[string]any    `json:"payload,omitempty"`
}

type IntegrationNode struct {
	id           string
	config       Config
	integrations persistence.IntegrationRepository
	client       *integration.Client
}

func NewIntegrationNode(id string, raw map[string]any, integrations persistence.IntegrationRepository, client *integration.Client) (*IntegrationNode, error) {
	var config Config

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(encoded, &config); err != nil {
		return nil, fmt.Errorf("malformed integration config: %w", err)
	}

	if config.IntegrationID == "" {
		return nil, errors.New("integration node requires 'integration_id'")
	}

	if config.Method == "" {
		config.Method = "POST"
	}

	return &IntegrationNode{
		id:           id,
		config:       config,
		integrations: integrations,
		client:       client,
	}, nil
}

func (n *IntegrationNode) ID() string            { return n.id }
func (n *IntegrationNode) Kind() models.NodeKind { return models.NodeKindIntegration }

func (n *IntegrationNode) Execute(ctx context.Context, ectx models.ExecutionContext) (*models.NodeOutcome, error) {
	integ, err := n.integrations.GetByID(ctx, n.config.IntegrationID)
	if err != nil {
		return models.FailureOutcome(fmt.Sprintf("integration %q not found", n.config.IntegrationID)), nil
	}

	payload := template.SubstituteMap(n.config.Payload, ectx.Variables)

	headers := make(map[string]string, len(n.config.Headers))
	for key, value := range n.config.Headers {
		headers[key] = template.SubstituteString(value, ectx.Variables)
	}

	var resp *integration.Response

	if n.config.Mode == "webhook" || integ.Type == models.IntegrationTypeWebhook {
		resp, err = n.client.PostWebhook(ctx, integ, payload)
	} else {
		path := template.SubstituteString(n.config.Path, ectx.Variables)
		resp, err = n.client.Call(ctx, integ, n.config.Method, path, headers, payload)
	}

	if err != nil {
		return models.FailureOutcome("integration call failed: " + err.Error()), nil
	}

	if resp.StatusCode >= 400 {
		return models.FailureOutcome(fmt.Sprintf("integration %s returned HTTP %d", integ.Name, resp.StatusCode)), nil
	}

	variables := map[string]any{
		"integration_status_code": resp.StatusCode,
		"integration_response":    resp.Body,
	}

	if resp.JSON != nil {
		variables["integration_response_json"] = resp.JSON
	}

	return models.SuccessOutcome(variables), nil
}
