package jobs

import (
	"context"
	"time"

	"checklist/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type dueMaterializer interface {
	Today() time.Time
	MaterializeDue(ctx context.Context, date time.Time) (services.MaterializeResult, error)
}

// DueSubmissionJob creates the submission of every schedule due today so the
// daily list is populated before anyone opens it.
type DueSubmissionJob struct {
	submissions dueMaterializer
	log         logger.Logger
	schedule    services.Schedule
}

func NewDueSubmissionJob(submissions dueMaterializer, schedule services.Schedule) *DueSubmissionJob {
	log := logger.New("dueSubmissionJob")
	log.Info("Creating due submission job", "schedule", schedule)

	return &DueSubmissionJob{
		submissions: submissions,
		log:         log,
		schedule:    schedule,
	}
}

func (j *DueSubmissionJob) Name() string {
	return "DueSubmissionMaterialization"
}

func (j *DueSubmissionJob) Execute(ctx context.Context) error {
	log := j.log.TraceFromContext(ctx).Function("Execute")

	result, err := j.submissions.MaterializeDue(ctx, j.submissions.Today())
	if err != nil {
		return log.Err("failed to materialize due submissions", err)
	}

	if result.Failed > 0 {
		log.Warn(
			"Some due submissions could not be materialized",
			"date", result.Date,
			"failed", result.Failed,
			"due", result.Due,
		)
	}

	log.Info(
		"Due submissions materialized",
		"date", result.Date,
		"due", result.Due,
		"created", result.Created,
		"existing", result.Existing,
	)
	return nil
}

func (j *DueSubmissionJob) Schedule() services.Schedule {
	return j.schedule
}
