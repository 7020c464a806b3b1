// Package approval implements the approval node kind: it files a pending
// human-decision request, notifies the approver, and pauses the execution
// until the approval gate receives a response.
package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/notify"
	"github.com/stepflow-io/stepflow/pkg/persistence"
	"github.com/stepflow-io/stepflow/pkg/template"
)

// Config is the typed configuration of an approval node.
type Config struct {
	ApproverID string `json:"approver_id"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Channel    string `json:"channel,omitempty"`
	Recipient  string `json:"recipient,omitempty"` // approver contact; defaults to approver_id
}

type ApprovalNode struct {
	id        string
	config    Config
	approvals persistence.ApprovalRepository
	notifier  notify.Notifier
}

func NewApprovalNode(id string, raw map[string]any, approvals persistence.ApprovalRepository, notifier notify.Notifier) (*ApprovalNode, error) {
	var config Config

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(encoded, &config); err != nil {
		return nil, fmt.Errorf("malformed approval config: %w", err)
	}

	return &ApprovalNode{
		id:        id,
		config:    config,
		approvals: approvals,
		notifier:  notifier,
	}, nil
}

func (n *ApprovalNode) ID() string            { return n.id }
func (n *ApprovalNode) Kind() models.NodeKind { return models.NodeKindApproval }

func (n *ApprovalNode) Execute(ctx context.Context, ectx models.ExecutionContext) (*models.NodeOutcome, error) {
	if n.config.ApproverID == "" {
		return models.FailureOutcome("approval node requires 'approver_id' in config"), nil
	}

	request := &models.WorkflowApproval{
		ID:          uuid.New().String(),
		ExecutionID: ectx.ExecutionID,
		WorkflowID:  ectx.WorkflowID,
		NodeID:      n.id,
		ApproverID:  n.config.ApproverID,
		Status:      models.ApprovalStatusPending,
		RequestData: ectx.Variables,
		RequestedAt: time.Now().UTC(),
	}

	if err := n.approvals.Save(ctx, request); err != nil {
		return models.FailureOutcome("failed to create approval request: " + err.Error()), nil
	}

	n.notifyApprover(ctx, ectx, request)

	return &models.NodeOutcome{
		Success:        true,
		PauseExecution: true,
		Variables:      map[string]any{"approval_id": request.ID},
	}, nil
}

// notifyApprover is best-effort: the approval exists either way and the
// approver can still respond through the API, so a failed delivery does not
// fail the node.
func (n *ApprovalNode) notifyApprover(ctx context.Context, ectx models.ExecutionContext, request *models.WorkflowApproval) {
	channel := notify.Channel(n.config.Channel)
	if channel == "" {
		channel = notify.ChannelEmail
	}

	recipient := n.config.Recipient
	if recipient == "" {
		recipient = n.config.ApproverID
	}

	subject := n.config.Title
	if subject == "" {
		subject = "Approval requested"
	}

	_, _ = n.notifier.Send(ctx, notify.Notification{
		Channel:    channel,
		Recipients: []string{recipient},
		Subject:    template.SubstituteString(subject, ectx.Variables),
		Body:       template.SubstituteString(n.config.Message, ectx.Variables),
		Data: map[string]any{
			"approval_id":  request.ID,
			"execution_id": request.ExecutionID,
			"workflow_id":  request.WorkflowID,
		},
	})
}
