// Package integration provides the outbound HTTP client used by integration
// nodes to call external endpoints.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stepflow-io/stepflow/pkg/models"
)

// Response is the outcome of one integration call. Success is defined by
// the caller as StatusCode < 400.
type Response struct {
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
	JSON       any    `json:"json,omitempty"`
}

// Client performs REST calls and webhook posts against integration
// descriptors.
type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Call performs an HTTP request against the integration's base URL. The
// payload is already variable-substituted by the caller.
func (c *Client) Call(ctx context.Context, integ *models.WorkflowIntegration, method, path string, headers map[string]string, payload map[string]any) (*Response, error) {
	url := strings.TrimSuffix(integ.BaseURL, "/")
	if path != "" {
		url += "/" + strings.TrimPrefix(path, "/")
	}

	var body io.Reader

	if len(payload) > 0 {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}

		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range integ.Headers {
		req.Header.Set(key, value)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	applyAuth(req, integ)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", integ.Name, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", integ.Name, err)
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
	}

	var jsonBody any
	if err := json.Unmarshal(respBody, &jsonBody); err == nil {
		result.JSON = jsonBody
	}

	return result, nil
}

// PostWebhook is the webhook variant: a plain POST of the substituted
// payload to the integration's base URL.
func (c *Client) PostWebhook(ctx context.Context, integ *models.WorkflowIntegration, payload map[string]any) (*Response, error) {
	return c.Call(ctx, integ, http.MethodPost, "", nil, payload)
}

func applyAuth(req *http.Request, integ *models.WorkflowIntegration) {
	switch integ.AuthType {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+integ.AuthToken)
	case "basic":
		req.Header.Set("Authorization", "Basic "+integ.AuthToken)
	case "header":
		// AuthToken carries "Header-Name: value".
		if name, value, found := strings.Cut(integ.AuthToken, ":"); found {
			req.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
		}
	}
}
