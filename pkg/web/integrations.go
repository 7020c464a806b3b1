package web

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/persistence"
)

func (h *APIHandlers) GetIntegrations(c fiber.Ctx) error {
	integrations, err := h.persistence.IntegrationRepository().List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"integrations": integrations})
}

func (h *APIHandlers) GetIntegration(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Integration ID is required")
	}

	integration, err := h.persistence.IntegrationRepository().GetByID(c.Context(), id)
	if err != nil {
		if persistence.IsIntegrationNotFound(err) {
			return notFound(c, "Integration not found")
		}

		return internalError(c, err)
	}

	return c.JSON(integration)
}

func (h *APIHandlers) CreateIntegration(c fiber.Ctx) error {
	var req SaveIntegrationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	now := time.Now().UTC()
	integration := &models.WorkflowIntegration{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Type:      req.Type,
		BaseURL:   req.BaseURL,
		AuthType:  req.AuthType,
		AuthToken: req.AuthToken,
		Headers:   req.Headers,
		Config:    req.Config,
		Active:    req.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.persistence.IntegrationRepository().Save(c.Context(), integration); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(integration)
}

// UpdateIntegration replaces the integration descriptor wholesale. Partial
// edits are not supported; callers send the full definition.
func (h *APIHandlers) UpdateIntegration(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Integration ID is required")
	}

	var req SaveIntegrationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.persistence.IntegrationRepository().GetByID(c.Context(), id)
	if err != nil {
		if persistence.IsIntegrationNotFound(err) {
			return notFound(c, "Integration not found")
		}

		return internalError(c, err)
	}

	existing.Name = req.Name
	existing.Type = req.Type
	existing.BaseURL = req.BaseURL
	existing.AuthType = req.AuthType
	existing.AuthToken = req.AuthToken
	existing.Headers = req.Headers
	existing.Config = req.Config
	existing.Active = req.Active
	existing.UpdatedAt = time.Now().UTC()

	if err := h.persistence.IntegrationRepository().Save(c.Context(), existing); err != nil {
		return internalError(c, err)
	}

	return c.JSON(existing)
}

func (h *APIHandlers) DeleteIntegration(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Integration ID is required")
	}

	if err := h.persistence.IntegrationRepository().Delete(c.Context(), id); err != nil {
		if persistence.IsIntegrationNotFound(err) {
			return notFound(c, "Integration not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
