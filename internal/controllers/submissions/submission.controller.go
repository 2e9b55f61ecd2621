package submissionController

import (
	"context"
	"strings"

	. "checklist/internal/models"
	"checklist/internal/services"
	"checklist/internal/utils"
)

type CheckRequest struct {
	IsChecked  *bool   `json:"isChecked"  validate:"required"`
	Notes      *string `json:"notes"      validate:"omitempty,max=500"`
	EmployeeID string  `json:"employeeId" validate:"notblank"`
}

type StartRequest struct {
	EmployeeID string `json:"employeeId"`
}

type SubmissionController struct {
	submissions *services.SubmissionService
}

type SubmissionControllerInterface interface {
	Today(ctx context.Context) ([]services.TodaySchedule, error)
	Start(ctx context.Context, scheduleID int, request *StartRequest) (*ChecklistSubmission, bool, error)
	List(ctx context.Context, date string) ([]*ChecklistSubmission, error)
	Get(ctx context.Context, id int) (*ChecklistSubmission, error)
	Check(ctx context.Context, detailID int, request *CheckRequest) (*ChecklistSubmissionDetail, error)
}

func New(services services.Service) SubmissionControllerInterface {
	return &SubmissionController{submissions: services.Submission}
}

func (c *SubmissionController) Today(ctx context.Context) ([]services.TodaySchedule, error) {
	return c.submissions.TodaySchedules(ctx)
}

func (c *SubmissionController) Start(
	ctx context.Context,
	scheduleID int,
	request *StartRequest,
) (*ChecklistSubmission, bool, error) {
	employeeID := ""
	if request != nil {
		employeeID = request.EmployeeID
	}
	return c.submissions.StartToday(ctx, scheduleID, employeeID)
}

// List returns the submissions of date, or of today when date is empty.
func (c *SubmissionController) List(ctx context.Context, date string) ([]*ChecklistSubmission, error) {
	if strings.TrimSpace(date) == "" {
		return c.submissions.ListSubmissions(ctx, c.submissions.Today())
	}

	parsed, err := utils.ParseDate(date)
	if err != nil {
		return nil, services.ValidationError("%s", err)
	}
	return c.submissions.ListSubmissions(ctx, parsed)
}

func (c *SubmissionController) Get(ctx context.Context, id int) (*ChecklistSubmission, error) {
	return c.submissions.GetSubmission(ctx, id)
}

func (c *SubmissionController) Check(
	ctx context.Context,
	detailID int,
	request *CheckRequest,
) (*ChecklistSubmissionDetail, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, services.ValidationError("%s", err)
	}

	return c.submissions.ApplyCheck(ctx, services.CheckAction{
		DetailID:        detailID,
		IsChecked:       *request.IsChecked,
		Notes:           request.Notes,
		ActorEmployeeID: request.EmployeeID,
	})
}
