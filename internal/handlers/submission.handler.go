package handlers

import (
	"checklist/internal/app"
	submissionController "checklist/internal/controllers/submissions"

	"github.com/gofiber/fiber/v2"
)

type SubmissionHandler struct {
	Handler
	controller submissionController.SubmissionControllerInterface
}

func NewSubmissionHandler(app app.App, router fiber.Router) *SubmissionHandler {
	return &SubmissionHandler{
		Handler:    newHandler(app, router, "submission_handler"),
		controller: app.Controllers.Submission,
	}
}

func (h *SubmissionHandler) Register() {
	submissions := h.router.Group("/checklist-submissions")
	submissions.Get("", h.list)
	submissions.Get("/:id", h.get)

	h.router.Post("/checklist-submission-details/:id/check", h.check)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("list")

	submissions, err := h.controller.List(c.UserContext(), c.Query("date"))
	if err != nil {
		return respondError(c, log, err, "Failed to list checklist submissions")
	}

	return c.JSON(fiber.Map{"submissions": submissions})
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("get")

	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid submission ID")
	}

	submission, err := h.controller.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, log, err, "Failed to get checklist submission")
	}

	return c.JSON(fiber.Map{"submission": submission})
}

func (h *SubmissionHandler) check(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("check")

	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid submission detail ID")
	}

	var req submissionController.CheckRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	detail, err := h.controller.Check(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to update checklist item")
	}

	return c.JSON(fiber.Map{"detail": detail})
}
