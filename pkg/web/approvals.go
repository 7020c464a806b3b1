package web

import (
	"github.com/gofiber/fiber/v3"

	"github.com/stepflow-io/stepflow/pkg/persistence"
)

func (h *APIHandlers) GetPendingApprovals(c fiber.Ctx) error {
	approver := c.Query("approver_id")
	if approver == "" {
		return badRequest(c, "approver_id query parameter is required")
	}

	approvals, err := h.persistence.ApprovalRepository().ListPendingByApprover(c.Context(), approver)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"approver_id": approver, "approvals": approvals})
}

func (h *APIHandlers) GetExecutionApprovals(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	if _, err := h.persistence.ExecutionRepository().GetByID(c.Context(), id); err != nil {
		if persistence.IsExecutionNotFound(err) {
			return notFound(c, "Execution not found")
		}

		return internalError(c, err)
	}

	approvals, err := h.persistence.ApprovalRepository().ListByExecution(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"execution_id": id, "approvals": approvals})
}

func (h *APIHandlers) ApproveApproval(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Approval ID is required")
	}

	var req ApprovalResponseRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	approval, err := h.gate.Approve(c.Context(), id, req.Responder, req.Comments, req.ResponseData)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(approval)
}

func (h *APIHandlers) RejectApproval(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Approval ID is required")
	}

	var req ApprovalResponseRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	approval, err := h.gate.Reject(c.Context(), id, req.Responder, req.Comments)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(approval)
}
