package app

import (
	"context"

	"checklist/config"
	"checklist/internal/controllers"
	"checklist/internal/database"
	"checklist/internal/events"
	"checklist/internal/handlers/middleware"
	"checklist/internal/jobs"
	"checklist/internal/repositories"
	"checklist/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database    database.DB
	Middleware  middleware.Middleware
	EventBus    *events.EventBus
	Config      config.Config
	Repos       repositories.Repository
	Services    services.Service
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events)
	repos := repositories.New()

	services, err := services.New(db, repos, config, eventBus)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	app := &App{
		Database:    db,
		Middleware:  middleware.New(config),
		EventBus:    eventBus,
		Config:      config,
		Repos:       repos,
		Services:    services,
		Controllers: controllers.New(services, repos),
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	if config.SchedulerEnabled {
		if err := jobs.RegisterAllJobs(services.Scheduler, services); err != nil {
			return &App{}, log.Err("failed to register jobs", err)
		}
		if err := services.Scheduler.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	switch {
	case a.EventBus == nil:
		return log.ErrMsg("event bus is nil")
	case a.Services.Transaction == nil, a.Services.Scheduler == nil:
		return log.ErrMsg("infrastructure services are nil")
	case a.Services.Users == nil, a.Services.Audit == nil, a.Services.Submission == nil:
		return log.ErrMsg("checklist services are nil")
	case a.Controllers.ChecklistType == nil, a.Controllers.Master == nil,
		a.Controllers.Schedule == nil, a.Controllers.Submission == nil:
		return log.ErrMsg("controllers are nil")
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
