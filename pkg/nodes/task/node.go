// Package task implements the task node kind: a configured sub-operation
// producing derived variables.
package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/template"
)

// Supported task operations.
const (
	OperationSetVariables = "set_variables"
	OperationTransform    = "transform"
	OperationHTTPRequest  = "http_request"
)

// Config is the typed configuration of a task node, decoded once at
// workflow activation.
type Config struct {
	Operation string         `json:"operation"`
	Variables map[string]any `json:"variables,omitempty"`  // set_variables
	Input     string         `json:"input,omitempty"`      // transform
	Output    string         `json:"output,omitempty"`     // transform
	URL       string         `json:"url,omitempty"`        // http_request
	Method    string         `json:"method,omitempty"`     // http_request
	Headers   map[string]any `json:"headers,omitempty"`    // http_request
	Body      map[string]any `json:"body,omitempty"`       // http_request
	TimeoutS  int            `json:"timeout_s,omitempty"`  // http_request
}

// TaskNode executes one configured sub-operation. Internal errors are
// reported as a failed outcome, not a Go error: a misbehaving task is a
// domain failure of the execution, not an engine fault.
type TaskNode struct {
	id     string
	config Config
	client *http.Client
}

func NewTaskNode(id string, raw map[string]any) (*TaskNode, error) {
	config, err := decodeConfig(raw)
	if err != nil {
		return nil, err
	}

	timeout := 30 * time.Second
	if config.TimeoutS > 0 {
		timeout = time.Duration(config.TimeoutS) * time.Second
	}

	return &TaskNode{
		id:     id,
		config: config,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func decodeConfig(raw map[string]any) (Config, error) {
	var config Config

	encoded, err := json.Marshal(raw)
	if err != nil {
		return config, err
	}

	if err := json.Unmarshal(encoded, &config); err != nil {
		return config, fmt.Errorf("malformed task config: %w", err)
	}

	switch config.Operation {
	case OperationSetVariables:
		if len(config.Variables) == 0 {
			return config, errors.New("set_variables task requires 'variables'")
		}
	case OperationTransform:
		if config.Input == "" || config.Output == "" {
			return config, errors.New("transform task requires 'input' and 'output'")
		}
	case OperationHTTPRequest:
		if config.URL == "" {
			return config, errors.New("http_request task requires 'url'")
		}
	case "":
		return config, errors.New("task config requires 'operation'")
	default:
		return config, fmt.Errorf("unknown task operation %q", config.Operation)
	}

	return config, nil
}

func (n *TaskNode) ID() string            { return n.id }
func (n *TaskNode) Kind() models.NodeKind { return models.NodeKindTask }

func (n *TaskNode) Execute(ctx context.Context, ectx models.ExecutionContext) (*models.NodeOutcome, error) {
	switch n.config.Operation {
	case OperationSetVariables:
		return models.SuccessOutcome(template.SubstituteMap(n.config.Variables, ectx.Variables)), nil
	case OperationTransform:
		value := template.Substitute(n.config.Input, ectx.Variables)

		return models.SuccessOutcome(map[string]any{n.config.Output: value}), nil
	case OperationHTTPRequest:
		return n.executeHTTPRequest(ctx, ectx)
	default:
		return models.FailureOutcome(fmt.Sprintf("unknown task operation %q", n.config.Operation)), nil
	}
}

func (n *TaskNode) executeHTTPRequest(ctx context.Context, ectx models.ExecutionContext) (*models.NodeOutcome, error) {
	url := template.SubstituteString(n.config.URL, ectx.Variables)

	method := strings.ToUpper(n.config.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader

	if len(n.config.Body) > 0 {
		payload := template.SubstituteMap(n.config.Body, ectx.Variables)

		encoded, err := json.Marshal(payload)
		if err != nil {
			return models.FailureOutcome("failed to encode request body: " + err.Error()), nil
		}

		body = strings.NewReader(string(encoded))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return models.FailureOutcome("failed to create request: " + err.Error()), nil
	}

	for key, value := range n.config.Headers {
		if s, ok := value.(string); ok {
			req.Header.Set(key, template.SubstituteString(s, ectx.Variables))
		}
	}

	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return models.FailureOutcome("request failed: " + err.Error()), nil
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.FailureOutcome("failed to read response: " + err.Error()), nil
	}

	if resp.StatusCode >= 400 {
		return models.FailureOutcome(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody))), nil
	}

	variables := map[string]any{
		"task_status_code": resp.StatusCode,
		"task_response":    string(respBody),
	}

	var jsonBody any
	if err := json.Unmarshal(respBody, &jsonBody); err == nil {
		variables["task_response_json"] = jsonBody
	}

	return models.SuccessOutcome(variables), nil
}
