package controllers

import (
	"checklist/internal/repositories"
	"checklist/internal/services"

	checklistTypeController "checklist/internal/controllers/checklistTypes"
	masterController "checklist/internal/controllers/masters"
	scheduleController "checklist/internal/controllers/schedules"
	submissionController "checklist/internal/controllers/submissions"
)

type Controllers struct {
	ChecklistType checklistTypeController.ChecklistTypeControllerInterface
	Master        masterController.MasterControllerInterface
	Schedule      scheduleController.ScheduleControllerInterface
	Submission    submissionController.SubmissionControllerInterface
}

func New(services services.Service, repos repositories.Repository) Controllers {
	return Controllers{
		ChecklistType: checklistTypeController.New(repos, services),
		Master:        masterController.New(repos, services),
		Schedule:      scheduleController.New(repos, services),
		Submission:    submissionController.New(services),
	}
}
