package web

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

func (h *APIHandlers) GetSchedules(c fiber.Ctx) error {
	schedules, err := h.persistence.ScheduleRepository().List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"schedules": schedules})
}

func (h *APIHandlers) GetSchedule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schedule ID is required")
	}

	schedule, err := h.persistence.ScheduleRepository().GetByID(c.Context(), id)
	if err != nil {
		if persistence.IsScheduleNotFound(err) {
			return notFound(c, "Schedule not found")
		}

		return internalError(c, err)
	}

	return c.JSON(schedule)
}

func (h *APIHandlers) CreateSchedule(c fiber.Ctx) error {
	var req CreateScheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if _, err := h.workflowService.FetchByID(c.Context(), req.WorkflowID); err != nil {
		return handleServiceError(c, err)
	}

	schedule, err := models.NewWorkflowSchedule(uuid.New().String(), req.WorkflowID, req.CronExpression)
	if err != nil {
		return badRequest(c, "Invalid cron expression: "+err.Error())
	}

	if err := h.persistence.ScheduleRepository().Save(c.Context(), schedule); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(schedule)
}

func (h *APIHandlers) UpdateSchedule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schedule ID is required")
	}

	var req UpdateScheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	schedule, err := h.persistence.ScheduleRepository().GetByID(c.Context(), id)
	if err != nil {
		if persistence.IsScheduleNotFound(err) {
			return notFound(c, "Schedule not found")
		}

		return internalError(c, err)
	}

	if req.CronExpression != nil {
		if err := schedule.Reschedule(*req.CronExpression); err != nil {
			return badRequest(c, "Invalid cron expression: "+err.Error())
		}
	}

	if req.Active != nil {
		schedule.Active = *req.Active
	}

	schedule.UpdatedAt = time.Now().UTC()

	if err := h.persistence.ScheduleRepository().Save(c.Context(), schedule); err != nil {
		return internalError(c, err)
	}

	return c.JSON(schedule)
}

func (h *APIHandlers) DeleteSchedule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schedule ID is required")
	}

	if err := h.persistence.ScheduleRepository().Delete(c.Context(), id); err != nil {
		if persistence.IsScheduleNotFound(err) {
			return notFound(c, "Schedule not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
