package handlers

import (
	"checklist/internal/app"
	checklistTypeController "checklist/internal/controllers/checklistTypes"

	"github.com/gofiber/fiber/v2"
)

type ChecklistTypeHandler struct {
	Handler
	controller checklistTypeController.ChecklistTypeControllerInterface
}

func NewChecklistTypeHandler(app app.App, router fiber.Router) *ChecklistTypeHandler {
	return &ChecklistTypeHandler{
		Handler:    newHandler(app, router, "checklist_type_handler"),
		controller: app.Controllers.ChecklistType,
	}
}

func (h *ChecklistTypeHandler) Register() {
	types := h.router.Group("/checklist-types")
	types.Get("", h.list)
	types.Post("", h.create)
	types.Delete("/:id", h.delete)
}

func (h *ChecklistTypeHandler) list(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("list")

	checklistTypes, err := h.controller.List(c.UserContext())
	if err != nil {
		return respondError(c, log, err, "Failed to list checklist types")
	}

	return c.JSON(fiber.Map{"checklistTypes": checklistTypes})
}

func (h *ChecklistTypeHandler) create(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("create")

	var req checklistTypeController.CreateChecklistTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	checklistType, err := h.controller.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, log, err, "Failed to create checklist type")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"checklistType": checklistType})
}

func (h *ChecklistTypeHandler) delete(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("delete")

	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid checklist type ID")
	}

	if err := h.controller.Delete(c.UserContext(), id); err != nil {
		return respondError(c, log, err, "Failed to delete checklist type")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
