package handlers

import (
	"checklist/internal/app"
	masterController "checklist/internal/controllers/masters"

	"github.com/gofiber/fiber/v2"
)

type MasterHandler struct {
	Handler
	controller masterController.MasterControllerInterface
}

func NewMasterHandler(app app.App, router fiber.Router) *MasterHandler {
	return &MasterHandler{
		Handler:    newHandler(app, router, "master_handler"),
		controller: app.Controllers.Master,
	}
}

func (h *MasterHandler) Register() {
	masters := h.router.Group("/checklist-masters")
	masters.Get("", h.list)
	masters.Post("", h.create)
	masters.Get("/:id", h.get)
	masters.Put("/:id", h.update)
	masters.Delete("/:id", h.delete)
	masters.Get("/:id/logs", h.logs)
}

func (h *MasterHandler) list(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("list")

	masters, err := h.controller.List(c.UserContext())
	if err != nil {
		return respondError(c, log, err, "Failed to list checklist masters")
	}

	return c.JSON(fiber.Map{"masters": masters})
}

func (h *MasterHandler) get(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("get")

	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid checklist master ID")
	}

	master, err := h.controller.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, log, err, "Failed to get checklist master")
	}

	return c.JSON(fiber.Map{"master": master})
}

func (h *MasterHandler) create(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("create")

	var req masterController.MasterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	master, err := h.controller.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, log, err, "Failed to create checklist master")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"master": master})
}

func (h *MasterHandler) update(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("update")

	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid checklist master ID")
	}

	var req masterController.MasterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	master, err := h.controller.Update(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to update checklist master")
	}

	return c.JSON(fiber.Map{"master": master})
}

func (h *MasterHandler) delete(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("delete")

	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid checklist master ID")
	}

	if err := h.controller.Delete(c.UserContext(), id, c.Query("employeeId")); err != nil {
		return respondError(c, log, err, "Failed to delete checklist master")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MasterHandler) logs(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("logs")

	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid checklist master ID")
	}

	logs, err := h.controller.Logs(c.UserContext(), id, c.Query("activity"))
	if err != nil {
		return respondError(c, log, err, "Failed to list checklist logs")
	}

	return c.JSON(fiber.Map{"logs": logs})
}
