package handlers

import (
	"checklist/internal/app"
	"checklist/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func newHandler(app app.App, router fiber.Router, file string) Handler {
	return Handler{
		middleware: app.Middleware,
		log:        logger.New("handlers").File(file),
		router:     router,
	}
}

func Router(router fiber.Router, app *app.App) (err error) {
	api := router.Group("/api", app.Middleware.TraceID())

	HealthHandler(api, app)
	NewChecklistTypeHandler(*app, api).Register()
	NewMasterHandler(*app, api).Register()
	NewScheduleHandler(*app, api).Register()
	NewSubmissionHandler(*app, api).Register()

	return nil
}
