package handlers

import (
	"checklist/internal/app"
	scheduleController "checklist/internal/controllers/schedules"
	submissionController "checklist/internal/controllers/submissions"

	"github.com/gofiber/fiber/v2"
)

type ScheduleHandler struct {
	Handler
	controller  scheduleController.ScheduleControllerInterface
	submissions submissionController.SubmissionControllerInterface
}

func NewScheduleHandler(app app.App, router fiber.Router) *ScheduleHandler {
	return &ScheduleHandler{
		Handler:     newHandler(app, router, "schedule_handler"),
		controller:  app.Controllers.Schedule,
		submissions: app.Controllers.Submission,
	}
}

func (h *ScheduleHandler) Register() {
	schedules := h.router.Group("/checklist-schedules")
	schedules.Get("", h.list)
	schedules.Post("", h.create)
	schedules.Get("/today", h.today)
	schedules.Get("/:id", h.get)
	schedules.Put("/:id", h.update)
	schedules.Delete("/:id", h.delete)
	schedules.Post("/:id/start", h.start)
}

func (h *ScheduleHandler) list(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("list")

	schedules, err := h.controller.List(c.UserContext())
	if err != nil {
		return respondError(c, log, err, "Failed to list checklist schedules")
	}

	return c.JSON(fiber.Map{"schedules": schedules})
}

func (h *ScheduleHandler) today(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("today")

	schedules, err := h.submissions.Today(c.UserContext())
	if err != nil {
		return respondError(c, log, err, "Failed to list today's schedules")
	}

	return c.JSON(fiber.Map{"schedules": schedules})
}

func (h *ScheduleHandler) get(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("get")

	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid checklist schedule ID")
	}

	schedule, err := h.controller.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, log, err, "Failed to get checklist schedule")
	}

	return c.JSON(fiber.Map{"schedule": schedule})
}

func (h *ScheduleHandler) create(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("create")

	var req scheduleController.CreateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	schedule, err := h.controller.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, log, err, "Failed to create checklist schedule")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"schedule": schedule})
}

func (h *ScheduleHandler) update(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("update")

	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid checklist schedule ID")
	}

	var req scheduleController.UpdateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	schedule, err := h.controller.Update(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to update checklist schedule")
	}

	return c.JSON(fiber.Map{"schedule": schedule})
}

func (h *ScheduleHandler) delete(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("delete")

	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid checklist schedule ID")
	}

	if err := h.controller.Delete(c.UserContext(), id, c.Query("employeeId")); err != nil {
		return respondError(c, log, err, "Failed to delete checklist schedule")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// start materializes today's submission; 201 when this call created it.
func (h *ScheduleHandler) start(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("start")

	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid checklist schedule ID")
	}

	var req submissionController.StartRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	submission, created, err := h.submissions.Start(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to start checklist submission")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"submission": submission, "created": created})
}
