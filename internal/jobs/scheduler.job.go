package jobs

import (
	"checklist/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

func RegisterAllJobs(schedulerService *services.SchedulerService, svc services.Service) error {
	log := logger.New("jobs").Function("RegisterAllJobs")
	log.Info("Registering jobs")

	dueSubmissionJob := NewDueSubmissionJob(svc.Submission, services.DailyMaterialization)
	if err := schedulerService.AddJob(dueSubmissionJob); err != nil {
		return log.Err("failed to register due submission job", err)
	}
	log.Info("Registered due submission job", "schedule", "daily")

	return nil
}
