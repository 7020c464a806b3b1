package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// ApprovalGate processes human decisions on paused executions. Only the
// designated approver may respond, and only while the approval is pending.
type ApprovalGate struct {
	logger      *slog.Logger
	approvals   persistence.ApprovalRepository
	coordinator *Coordinator
}

func NewApprovalGate(logger *slog.Logger, approvals persistence.ApprovalRepository, coordinator *Coordinator) *ApprovalGate {
	return &ApprovalGate{
		logger:      logger.With("module", "approval_gate"),
		approvals:   approvals,
		coordinator: coordinator,
	}
}

// Approve marks the approval approved and resumes the owning execution from
// the approval node's outgoing connections.
func (g *ApprovalGate) Approve(ctx context.Context, approvalID, responder, comments string, responseData map[string]any) (*models.WorkflowApproval, error) {
	approval, err := g.respond(ctx, approvalID, responder, comments, responseData, models.ApprovalStatusApproved)
	if err != nil {
		return nil, err
	}

	err = g.coordinator.AdvanceAfterNode(ctx, approval.ExecutionID, approval.NodeID, map[string]any{
		"approval_status":   string(models.ApprovalStatusApproved),
		"approval_comments": comments,
	})
	if err != nil {
		return nil, fmt.Errorf("resuming execution %s after approval: %w", approval.ExecutionID, err)
	}

	g.logger.InfoContext(ctx, "Approval granted",
		"approval_id", approvalID, "execution_id", approval.ExecutionID, "responder", responder)

	return approval, nil
}

// Reject marks the approval rejected and fails the owning execution. A
// rejection is a hard stop, not a branch.
func (g *ApprovalGate) Reject(ctx context.Context, approvalID, responder, comments string) (*models.WorkflowApproval, error) {
	approval, err := g.respond(ctx, approvalID, responder, comments, nil, models.ApprovalStatusRejected)
	if err != nil {
		return nil, err
	}

	reason := fmt.Sprintf("approval rejected by %s", responder)
	if comments != "" {
		reason = fmt.Sprintf("%s: %s", reason, comments)
	}

	if err := g.coordinator.FailFromNode(ctx, approval.ExecutionID, approval.NodeID, reason); err != nil {
		return nil, fmt.Errorf("failing execution %s after rejection: %w", approval.ExecutionID, err)
	}

	g.logger.InfoContext(ctx, "Approval rejected",
		"approval_id", approvalID, "execution_id", approval.ExecutionID, "responder", responder)

	return approval, nil
}

func (g *ApprovalGate) respond(ctx context.Context, approvalID, responder, comments string, responseData map[string]any, status models.ApprovalStatus) (*models.WorkflowApproval, error) {
	approval, err := g.approvals.GetByID(ctx, approvalID)
	if err != nil {
		return nil, fmt.Errorf("fetching approval %s: %w", approvalID, err)
	}

	if approval.ApproverID != responder {
		return nil, &PermissionError{
			ApprovalID: approvalID,
			Responder:  responder,
			Reason:     "not the designated approver",
		}
	}

	if !approval.IsPending() {
		return nil, &PermissionError{
			ApprovalID: approvalID,
			Responder:  responder,
			Reason:     fmt.Sprintf("approval already %s", approval.Status),
		}
	}

	// The approval row is filed and the approver notified before the
	// coordinator persists the pause, so a response can arrive while the
	// execution is still mid-node. Responding then would be absorbed as a
	// stale continuation and wedge the run. Leave the approval pending and
	// conflict; the responder retries once the pause has landed.
	execution, err := g.coordinator.persistence.ExecutionRepository().GetByID(ctx, approval.ExecutionID)
	if err != nil {
		return nil, fmt.Errorf("fetching execution %s: %w", approval.ExecutionID, err)
	}

	if execution.Status != models.ExecutionStatusPaused || execution.CurrentNodeID != approval.NodeID {
		return nil, &InvalidTransitionError{
			ExecutionID: approval.ExecutionID,
			From:        execution.Status,
			Operation:   "respond",
		}
	}

	now := time.Now().UTC()
	approval.Status = status
	approval.Comments = comments
	approval.ResponseData = responseData
	approval.RespondedAt = &now

	if err := g.approvals.Save(ctx, approval); err != nil {
		return nil, fmt.Errorf("saving approval %s: %w", approvalID, err)
	}

	return approval, nil
}
