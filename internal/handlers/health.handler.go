package handlers

import (
	"checklist/internal/app"

	"github.com/gofiber/fiber/v2"
)

func HealthHandler(router fiber.Router, app *app.App) {
	router.Get("/health", func(c *fiber.Ctx) error {
		response := fiber.Map{
			"status":  "ok",
			"version": app.Config.GeneralVersion,
			"service": "checklist_api",
		}

		if scheduler := app.Services.Scheduler; scheduler != nil {
			response["scheduler"] = fiber.Map{
				"running": scheduler.IsRunning(),
				"jobs":    scheduler.GetJobCount(),
				"nextRun": scheduler.GetNextRunTime(),
			}
		}

		return c.JSON(response)
	})
}
