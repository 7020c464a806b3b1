package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow-io/stepflow/pkg/cmd"
	"github.com/stepflow-io/stepflow/pkg/engine"
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/notify"
	"github.com/stepflow-io/stepflow/pkg/persistence/file"
	"github.com/stepflow-io/stepflow/pkg/testutil"
)

type noopNotifier struct{}

func (noopNotifier) Send(_ context.Context, _ notify.Notification) (notify.Delivery, error) {
	return notify.Delivery{Delivered: true}, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	store := file.NewPersistence(t.TempDir())
	dispatcher := testutil.NewSyncDispatcher()

	delays := engine.NewContinuationScheduler(logger, dispatcher)
	reg := cmd.NewRegistry(logger, store, noopNotifier{}, delays)
	coordinator := engine.NewCoordinator(logger, store, reg, dispatcher, nil)
	require.NoError(t, coordinator.RegisterHandlers())

	return NewAPI(logger, store, reg, dispatcher, coordinator).App()
}

func request(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		// Non-object bodies (arrays, plain text) stay undecoded.
		_ = json.Unmarshal(raw, &decoded)
	}

	return resp, decoded
}

func createWorkflow(t *testing.T, app *fiber.App) string {
	t.Helper()

	resp, body := request(t, app, http.MethodPost, "/workflows", map[string]any{
		"name":  "order processing",
		"owner": "ada",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	return id
}

func putLinearGraph(t *testing.T, app *fiber.App, workflowID string) {
	t.Helper()

	resp, _ := request(t, app, http.MethodPut, "/workflows/"+workflowID+"/graph", map[string]any{
		"nodes": []map[string]any{
			{"id": "start", "kind": "start", "name": "start"},
			{"id": "work", "kind": "task", "name": "work", "config": map[string]any{
				"operation": "set_variables",
				"variables": map[string]any{"worked": true},
			}},
			{"id": "end", "kind": "end", "name": "end"},
		},
		"connections": []map[string]any{
			{"id": "c1", "source_id": "start", "target_id": "work"},
			{"id": "c2", "source_id": "work", "target_id": "end"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndFetchWorkflow(t *testing.T) {
	app := newTestApp(t)

	id := createWorkflow(t, app)

	resp, body := request(t, app, http.MethodGet, "/workflows/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "order processing", body["name"])
	assert.Equal(t, string(models.WorkflowStatusDraft), body["status"])
}

func TestCreateWorkflowRejectsBadPayload(t *testing.T) {
	app := newTestApp(t)

	resp, body := request(t, app, http.MethodPost, "/workflows", map[string]any{
		"name": "ok name",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["type"])
}

func TestGetWorkflowNotFound(t *testing.T) {
	app := newTestApp(t)

	resp, body := request(t, app, http.MethodGet, "/workflows/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["type"])
}

func TestListWorkflowsPaging(t *testing.T) {
	app := newTestApp(t)

	createWorkflow(t, app)
	createWorkflow(t, app)

	resp, body := request(t, app, http.MethodGet, "/workflows/?limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["total_count"])
	assert.Equal(t, true, body["has_next_page"])
}

func TestActivateRequiresValidGraph(t *testing.T) {
	app := newTestApp(t)

	id := createWorkflow(t, app)

	resp, body := request(t, app, http.MethodPost, "/workflows/"+id+"/activate", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_graph", body["type"])
}

func TestPauseDraftConflicts(t *testing.T) {
	app := newTestApp(t)

	id := createWorkflow(t, app)

	resp, body := request(t, app, http.MethodPost, "/workflows/"+id+"/pause", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", body["type"])
}

func TestTriggerRunsExecution(t *testing.T) {
	app := newTestApp(t)

	id := createWorkflow(t, app)
	putLinearGraph(t, app, id)

	resp, _ := request(t, app, http.MethodPost, "/workflows/"+id+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := request(t, app, http.MethodPost, "/workflows/"+id+"/trigger", map[string]any{
		"triggered_by": "ada",
		"payload":      map[string]any{"amount": 42.0},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	executionID, _ := body["id"].(string)
	require.NotEmpty(t, executionID)

	// The in-process queue runs the graph before Trigger returns.
	resp, body = request(t, app, http.MethodGet, "/executions/"+executionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(models.ExecutionStatusCompleted), body["status"])

	resp, body = request(t, app, http.MethodGet, "/executions/"+executionID+"/logs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["entries"])

	resp, body = request(t, app, http.MethodGet, "/workflows/"+id+"/executions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	executions, _ := body["executions"].([]any)
	assert.Len(t, executions, 1)
}

func TestTriggerDraftWorkflowConflicts(t *testing.T) {
	app := newTestApp(t)

	id := createWorkflow(t, app)

	resp, body := request(t, app, http.MethodPost, "/workflows/"+id+"/trigger", map[string]any{
		"triggered_by": "ada",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", body["type"])
}

func TestValidateGraphEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp, _ := request(t, app, http.MethodPost, "/workflows/validate-graph", map[string]any{
		"nodes": []map[string]any{
			{"id": "start", "kind": "start", "name": "start"},
		},
		"connections": []map[string]any{},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteWorkflow(t *testing.T) {
	app := newTestApp(t)

	id := createWorkflow(t, app)

	resp, _ := request(t, app, http.MethodDelete, "/workflows/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = request(t, app, http.MethodGet, "/workflows/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTemplateLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)

	publish := map[string]any{
		"name":       "welcome flow",
		"category":   "onboarding",
		"created_by": "ada",
		"nodes": []map[string]any{
			{"id": "start", "kind": "start", "name": "start"},
			{"id": "end", "kind": "end", "name": "end"},
		},
		"connections": []map[string]any{
			{"id": "c1", "source_id": "start", "target_id": "end"},
		},
	}

	resp, body := request(t, app, http.MethodPost, "/templates", publish)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(1), body["version"])

	templateID, _ := body["id"].(string)
	require.NotEmpty(t, templateID)

	resp, body = request(t, app, http.MethodPost, fmt.Sprintf("/templates/%s/instantiate", templateID), map[string]any{
		"name":  "my welcome",
		"owner": "grace",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, string(models.WorkflowStatusDraft), body["status"])
	assert.Equal(t, templateID, body["template_id"])
}

func TestApprovalFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)

	id := createWorkflow(t, app)

	resp, _ := request(t, app, http.MethodPut, "/workflows/"+id+"/graph", map[string]any{
		"nodes": []map[string]any{
			{"id": "start", "kind": "start", "name": "start"},
			{"id": "gate", "kind": "approval", "name": "gate", "config": map[string]any{
				"approver_id": "alice",
			}},
			{"id": "end", "kind": "end", "name": "end"},
		},
		"connections": []map[string]any{
			{"id": "c1", "source_id": "start", "target_id": "gate"},
			{"id": "c2", "source_id": "gate", "target_id": "end"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = request(t, app, http.MethodPost, "/workflows/"+id+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := request(t, app, http.MethodPost, "/workflows/"+id+"/trigger", map[string]any{
		"triggered_by": "ada",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	executionID, _ := body["id"].(string)

	resp, body = request(t, app, http.MethodGet, "/approvals/?approver_id=alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	approvals, _ := body["approvals"].([]any)
	require.Len(t, approvals, 1)

	approval, _ := approvals[0].(map[string]any)
	approvalID, _ := approval["id"].(string)
	require.NotEmpty(t, approvalID)

	resp, _ = request(t, app, http.MethodPost, "/approvals/"+approvalID+"/approve", map[string]any{
		"responder": "alice",
		"comments":  "looks good",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = request(t, app, http.MethodGet, "/executions/"+executionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(models.ExecutionStatusCompleted), body["status"])
}

func TestApproveByWrongResponderIsForbidden(t *testing.T) {
	app := newTestApp(t)

	id := createWorkflow(t, app)

	resp, _ := request(t, app, http.MethodPut, "/workflows/"+id+"/graph", map[string]any{
		"nodes": []map[string]any{
			{"id": "start", "kind": "start", "name": "start"},
			{"id": "gate", "kind": "approval", "name": "gate", "config": map[string]any{
				"approver_id": "alice",
			}},
			{"id": "end", "kind": "end", "name": "end"},
		},
		"connections": []map[string]any{
			{"id": "c1", "source_id": "start", "target_id": "gate"},
			{"id": "c2", "source_id": "gate", "target_id": "end"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = request(t, app, http.MethodPost, "/workflows/"+id+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = request(t, app, http.MethodPost, "/workflows/"+id+"/trigger", map[string]any{
		"triggered_by": "ada",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, body := request(t, app, http.MethodGet, "/approvals/?approver_id=alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	approvals, _ := body["approvals"].([]any)
	require.Len(t, approvals, 1)
	approval, _ := approvals[0].(map[string]any)
	approvalID, _ := approval["id"].(string)

	resp, body = request(t, app, http.MethodPost, "/approvals/"+approvalID+"/approve", map[string]any{
		"responder": "mallory",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "permission_denied", body["type"])
}

func TestRetryFailedExecutionOverHTTP(t *testing.T) {
	app := newTestApp(t)

	id := createWorkflow(t, app)

	// transform without its required output key fails config validation at
	// activate time, so fail at runtime instead with an unreachable URL.
	resp, _ := request(t, app, http.MethodPut, "/workflows/"+id+"/graph", map[string]any{
		"nodes": []map[string]any{
			{"id": "start", "kind": "start", "name": "start"},
			{"id": "work", "kind": "task", "name": "work", "config": map[string]any{
				"operation": "http_request",
				"url":       "http://127.0.0.1:1/unreachable",
			}},
			{"id": "end", "kind": "end", "name": "end"},
		},
		"connections": []map[string]any{
			{"id": "c1", "source_id": "start", "target_id": "work"},
			{"id": "c2", "source_id": "work", "target_id": "end"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = request(t, app, http.MethodPost, "/workflows/"+id+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := request(t, app, http.MethodPost, "/workflows/"+id+"/trigger", map[string]any{
		"triggered_by": "ada",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	executionID, _ := body["id"].(string)

	resp, body = request(t, app, http.MethodGet, "/executions/"+executionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, string(models.ExecutionStatusFailed), body["status"])

	resp, body = request(t, app, http.MethodPost, "/executions/"+executionID+"/retry", map[string]any{
		"triggered_by": "ada",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEqual(t, executionID, body["id"])
}

func TestScheduleCRUDOverHTTP(t *testing.T) {
	app := newTestApp(t)

	id := createWorkflow(t, app)

	resp, body := request(t, app, http.MethodPost, "/schedules", map[string]any{
		"workflow_id":     id,
		"cron_expression": "0 * * * *",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	scheduleID, _ := body["id"].(string)
	require.NotEmpty(t, scheduleID)
	assert.Equal(t, true, body["active"])

	resp, body = request(t, app, http.MethodGet, "/schedules/"+scheduleID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0 * * * *", body["cron_expression"])

	resp, _ = request(t, app, http.MethodDelete, "/schedules/"+scheduleID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = request(t, app, http.MethodGet, "/schedules/"+scheduleID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateScheduleRejectsBadCron(t *testing.T) {
	app := newTestApp(t)

	id := createWorkflow(t, app)

	resp, _ := request(t, app, http.MethodPost, "/schedules", map[string]any{
		"workflow_id":     id,
		"cron_expression": "not a cron",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegrationCRUDOverHTTP(t *testing.T) {
	app := newTestApp(t)

	resp, body := request(t, app, http.MethodPost, "/integrations", map[string]any{
		"name":      "CRM",
		"type":      "api",
		"base_url":  "https://crm.internal",
		"auth_type": "bearer",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	integrationID, _ := body["id"].(string)
	require.NotEmpty(t, integrationID)

	resp, body = request(t, app, http.MethodGet, "/integrations/"+integrationID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://crm.internal", body["base_url"])

	resp, _ = request(t, app, http.MethodDelete, "/integrations/"+integrationID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp, body := request(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}
