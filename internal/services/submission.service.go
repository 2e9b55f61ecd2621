package services

import (
	"context"
	"strconv"
	"time"
	"unicode/utf8"

	"checklist/internal/events"
	"checklist/internal/models"
	"checklist/internal/repositories"
	"checklist/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CheckAction is one check/uncheck of a submission detail. Notes replace the
// stored notes; nil or blank clears them.
type CheckAction struct {
	DetailID        int
	IsChecked       bool
	Notes           *string
	ActorEmployeeID string
}

// TodaySchedule is a due schedule joined with its submission for the day, if
// one exists.
type TodaySchedule struct {
	Schedule       *models.ChecklistSchedule `json:"schedule"`
	Period         string                    `json:"period"`
	SubmissionID   *int                      `json:"id"`
	Status         models.SubmissionStatus   `json:"status"`
	CheckedCount   int                       `json:"checkedCount"`
	TotalCount     int                       `json:"totalCount"`
	CompletionRate decimal.Decimal           `json:"completionRate"`
}

// MaterializeResult summarizes one pass over the due schedules of a date.
type MaterializeResult struct {
	Date     string `json:"date"`
	Due      int    `json:"due"`
	Created  int    `json:"created"`
	Existing int    `json:"existing"`
	Failed   int    `json:"failed"`
}

// SubmissionService owns the submission lifecycle: materializing dated
// submissions, applying check actions and keeping status in step.
type SubmissionService struct {
	tx             Transactor
	scheduleRepo   repositories.ChecklistScheduleRepository
	submissionRepo repositories.ChecklistSubmissionRepository
	resolver       *UserResolver
	audit          AuditRecorder
	publisher      Publisher
	location       *time.Location
	now            func() time.Time
	log            logger.Logger
}

func NewSubmissionService(
	tx Transactor,
	repos repositories.Repository,
	resolver *UserResolver,
	audit AuditRecorder,
	publisher Publisher,
	location *time.Location,
) *SubmissionService {
	if location == nil {
		location = time.UTC
	}
	return &SubmissionService{
		tx:             tx,
		scheduleRepo:   repos.ChecklistSchedule,
		submissionRepo: repos.ChecklistSubmission,
		resolver:       resolver,
		audit:          audit,
		publisher:      publisher,
		location:       location,
		now:            time.Now,
		log:            logger.New("SubmissionService"),
	}
}

// Today is the current calendar date in the configured timezone.
func (s *SubmissionService) Today() time.Time {
	return utils.Today(s.now(), s.location)
}

// DueSchedules lists the schedules due on date whose master is still live.
func (s *SubmissionService) DueSchedules(
	ctx context.Context,
	date time.Time,
) ([]*models.ChecklistSchedule, error) {
	date = utils.DateOnly(date)

	eligible, err := s.scheduleRepo.ListEligible(ctx, s.tx.DB(ctx), date)
	if err != nil {
		return nil, err
	}

	due := make([]*models.ChecklistSchedule, 0, len(eligible))
	for _, schedule := range eligible {
		if schedule.Master.IsAvailable() && models.IsDue(schedule, date) {
			due = append(due, schedule)
		}
	}

	return due, nil
}

// TodaySchedules returns today's due schedules with their submission state.
// Schedules without a submission report pending and a nil id.
func (s *SubmissionService) TodaySchedules(ctx context.Context) ([]TodaySchedule, error) {
	today := s.Today()

	due, err := s.DueSchedules(ctx, today)
	if err != nil {
		return nil, err
	}
	if len(due) == 0 {
		return []TodaySchedule{}, nil
	}

	scheduleIDs := make([]int, len(due))
	for i, schedule := range due {
		scheduleIDs[i] = schedule.ID
	}

	submissions, err := s.submissionRepo.ListForSchedulesOnDate(ctx, s.tx.DB(ctx), scheduleIDs, today)
	if err != nil {
		return nil, err
	}
	bySchedule := make(map[int]*models.ChecklistSubmission, len(submissions))
	for _, submission := range submissions {
		bySchedule[submission.ChecklistScheduleID] = submission
	}

	result := make([]TodaySchedule, 0, len(due))
	for _, schedule := range due {
		entry := TodaySchedule{
			Schedule:   schedule,
			Period:     models.FormatPeriod(schedule.PeriodeType, schedule.ScheduleDetails),
			Status:     models.SubmissionPending,
			TotalCount: len(schedule.Master.Items),
		}

		if submission, ok := bySchedule[schedule.ID]; ok {
			id := submission.ID
			entry.SubmissionID = &id
			entry.Status = submission.Status
			entry.CheckedCount = submission.CountChecked()
			entry.TotalCount = len(submission.Details)
		}

		entry.CompletionRate = completionRate(entry.CheckedCount, entry.TotalCount)
		result = append(result, entry)
	}

	return result, nil
}

// GetOrCreateSubmission returns the submission of scheduleID on date,
// materializing it with one unchecked detail per item when absent. The
// returned bool reports whether this call created it.
func (s *SubmissionService) GetOrCreateSubmission(
	ctx context.Context,
	scheduleID int,
	date time.Time,
) (*models.ChecklistSubmission, bool, error) {
	return s.materialize(ctx, scheduleID, date, "")
}

// StartToday materializes today's submission on behalf of actorEmployeeID,
// who is recorded on the audit entry when known locally.
func (s *SubmissionService) StartToday(
	ctx context.Context,
	scheduleID int,
	actorEmployeeID string,
) (*models.ChecklistSubmission, bool, error) {
	return s.materialize(ctx, scheduleID, s.Today(), actorEmployeeID)
}

func (s *SubmissionService) materialize(
	ctx context.Context,
	scheduleID int,
	date time.Time,
	actorEmployeeID string,
) (*models.ChecklistSubmission, bool, error) {
	log := s.log.TraceFromContext(ctx).Function("GetOrCreateSubmission")

	date = utils.DateOnly(date)

	var (
		submission *models.ChecklistSubmission
		schedule   *models.ChecklistSchedule
		created    bool
	)

	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		schedule, err = s.scheduleRepo.GetByID(ctx, tx, scheduleID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return NotFoundError("checklist schedule %d not found", scheduleID)
			}
			return err
		}

		master := schedule.Master
		if !master.IsAvailable() {
			return NotFoundError(
				"checklist master %s of schedule %s no longer exists",
				masterLabel(master, schedule.ChecklistMasterID),
				schedule.Name,
			)
		}
		if len(master.Items) == 0 {
			return ValidationError("checklist master %q has no items", master.Name)
		}
		if !models.IsDue(schedule, date) {
			return ValidationError("schedule %s is not due on %s", schedule.Name, utils.FormatDate(date))
		}

		candidate := &models.ChecklistSubmission{
			ChecklistScheduleID: schedule.ID,
			SubmissionDate:      date,
			Status:              models.SubmissionPending,
			SubmittedBy:         schedule.CreatedBy,
		}
		created, err = s.submissionRepo.InsertIfAbsent(ctx, tx, candidate)
		if err != nil {
			return err
		}

		if created {
			details := make([]models.ChecklistSubmissionDetail, 0, len(master.Items))
			for _, item := range master.Items {
				details = append(details, models.ChecklistSubmissionDetail{
					SubmissionID: candidate.ID,
					ItemID:       item.ID,
				})
			}
			if err := s.submissionRepo.CreateDetails(ctx, tx, details); err != nil {
				return err
			}
		}

		submission, err = s.submissionRepo.FindByScheduleDate(ctx, tx, schedule.ID, date)
		if err != nil {
			return log.Err("failed to read materialized submission", err, "scheduleID", schedule.ID)
		}

		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		log.Info("submission materialized", "scheduleID", schedule.ID, "date", utils.FormatDate(date), "submissionID", submission.ID)

		entry := models.ChecklistLog{
			ChecklistMasterID: schedule.ChecklistMasterID,
			EntityType:        models.EntitySubmission,
			EntityID:          submission.ID,
			Activity:          models.ActivityStartSubmission,
			After: datatypes.JSONMap{
				"schedule":       schedule.Name,
				"submissionDate": utils.FormatDate(date),
				"status":         string(submission.Status),
				"itemCount":      len(submission.Details),
			},
		}
		entry.SetActor(s.resolver.ForLogging(ctx, s.tx.DB(ctx), actorEmployeeID, schedule.CreatedBy))
		s.audit.Record(ctx, entry)

		s.publish(ctx, events.SUBMISSION_CREATED, entry.ActorEmployeeID, submission)
	}

	return submission, created, nil
}

// MaterializeDue creates the submissions of every schedule due on date.
// A failing schedule is logged and does not stop the pass.
func (s *SubmissionService) MaterializeDue(ctx context.Context, date time.Time) (MaterializeResult, error) {
	log := s.log.TraceFromContext(ctx).Function("MaterializeDue")

	date = utils.DateOnly(date)
	result := MaterializeResult{Date: utils.FormatDate(date)}

	due, err := s.DueSchedules(ctx, date)
	if err != nil {
		return result, err
	}
	result.Due = len(due)

	for _, schedule := range due {
		_, created, err := s.GetOrCreateSubmission(ctx, schedule.ID, date)
		switch {
		case err != nil:
			result.Failed++
			log.Er("failed to materialize submission", err, "scheduleID", schedule.ID, "date", result.Date)
		case created:
			result.Created++
		default:
			result.Existing++
		}
	}

	if s.publisher != nil {
		err := s.publisher.Publish(events.SUBMISSION_CHANNEL, events.Event{
			Type: events.MATERIALIZATION_DONE,
			Data: map[string]any{
				"date":     result.Date,
				"due":      result.Due,
				"created":  result.Created,
				"existing": result.Existing,
				"failed":   result.Failed,
			},
		})
		if err != nil {
			log.Warn("failed to publish materialization summary", "date", result.Date, "error", err)
		}
	}

	return result, nil
}

// ApplyCheck updates one detail and recomputes its submission's status in a
// single transaction. The actor is resolved before the transaction opens.
func (s *SubmissionService) ApplyCheck(
	ctx context.Context,
	action CheckAction,
) (*models.ChecklistSubmissionDetail, error) {
	log := s.log.TraceFromContext(ctx).Function("ApplyCheck")

	if action.DetailID <= 0 {
		return nil, ValidationError("submission detail id is required")
	}
	if action.Notes != nil && utf8.RuneCountInString(*action.Notes) > models.MaxNotesLength {
		return nil, ValidationError("notes must be at most %d characters", models.MaxNotesLength)
	}

	actor, err := s.resolver.Resolve(ctx, s.tx.DB(ctx), action.ActorEmployeeID)
	if err != nil {
		return nil, err
	}

	var (
		updated   *models.ChecklistSubmissionDetail
		entries   []models.ChecklistLog
		newStatus models.SubmissionStatus
	)

	err = s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		detail, err := s.loadDetail(ctx, tx, action.DetailID)
		if err != nil {
			return err
		}

		submission, err := s.submissionRepo.LockForUpdate(ctx, tx, detail.SubmissionID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return NotFoundError("submission %d not found", detail.SubmissionID)
			}
			return err
		}

		// Re-read under the submission lock so the before-state is current.
		if detail, err = s.loadDetail(ctx, tx, action.DetailID); err != nil {
			return err
		}

		previous := *detail
		detail.IsChecked = action.IsChecked
		detail.Notes = utils.NormalizeNotes(action.Notes)

		if err := s.submissionRepo.UpdateDetail(ctx, tx, detail); err != nil {
			return err
		}

		checked, total, err := s.submissionRepo.CountDetails(ctx, tx, submission.ID)
		if err != nil {
			return err
		}
		newStatus = models.DeriveStatus(checked, total)

		actorID := actor.ID
		if err := s.submissionRepo.UpdateStatus(ctx, tx, submission.ID, newStatus, &actorID); err != nil {
			return err
		}

		entries = checkEntries(detail.Submission.Schedule, submission, &previous, detail, newStatus)
		updated = detail
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].SetActor(actor)
	}
	s.audit.Record(ctx, entries...)

	log.Info(
		"check applied",
		"detailID", updated.ID,
		"submissionID", updated.SubmissionID,
		"isChecked", updated.IsChecked,
		"status", newStatus,
		"employeeID", actor.EmployeeID,
	)

	s.publishUpdate(ctx, actor.EmployeeID, updated.SubmissionID, newStatus)
	return updated, nil
}

func (s *SubmissionService) loadDetail(
	ctx context.Context,
	tx *gorm.DB,
	detailID int,
) (*models.ChecklistSubmissionDetail, error) {
	detail, err := s.submissionRepo.GetDetail(ctx, tx, detailID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, NotFoundError("submission detail %d not found", detailID)
		}
		return nil, err
	}

	if detail.Submission == nil {
		return nil, NotFoundError("submission %d not found", detail.SubmissionID)
	}
	schedule := detail.Submission.Schedule
	if schedule == nil {
		return nil, NotFoundError(
			"schedule of submission %d no longer exists",
			detail.SubmissionID,
		)
	}
	if !schedule.Master.IsAvailable() {
		return nil, NotFoundError(
			"checklist master %s of schedule %s no longer exists",
			masterLabel(schedule.Master, schedule.ChecklistMasterID),
			schedule.Name,
		)
	}

	return detail, nil
}

// RecomputeStatus derives the status of a submission from its details and
// stores it. Running it repeatedly yields the same status.
func (s *SubmissionService) RecomputeStatus(
	ctx context.Context,
	submissionID int,
) (models.SubmissionStatus, error) {
	var status models.SubmissionStatus

	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		submission, err := s.submissionRepo.LockForUpdate(ctx, tx, submissionID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return NotFoundError("submission %d not found", submissionID)
			}
			return err
		}

		checked, total, err := s.submissionRepo.CountDetails(ctx, tx, submissionID)
		if err != nil {
			return err
		}

		status = models.DeriveStatus(checked, total)
		if status == submission.Status {
			return nil
		}
		return s.submissionRepo.UpdateStatus(ctx, tx, submissionID, status, submission.SubmittedBy)
	})
	if err != nil {
		return "", err
	}

	return status, nil
}

func (s *SubmissionService) GetSubmission(ctx context.Context, id int) (*models.ChecklistSubmission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, s.tx.DB(ctx), id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, NotFoundError("submission %d not found", id)
		}
		return nil, err
	}
	return submission, nil
}

func (s *SubmissionService) ListSubmissions(
	ctx context.Context,
	date time.Time,
) ([]*models.ChecklistSubmission, error) {
	return s.submissionRepo.ListByDate(ctx, s.tx.DB(ctx), utils.DateOnly(date))
}

func (s *SubmissionService) publish(
	ctx context.Context,
	eventType events.MessageType,
	actorEmployeeID string,
	submission *models.ChecklistSubmission,
) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(events.SUBMISSION_CHANNEL, events.Event{
		Type:            eventType,
		ActorEmployeeID: actorEmployeeID,
		Data: map[string]any{
			"submissionId":   submission.ID,
			"scheduleId":     submission.ChecklistScheduleID,
			"submissionDate": utils.FormatDate(submission.SubmissionDate),
			"status":         submission.Status,
		},
	})
	if err != nil {
		s.log.TraceFromContext(ctx).Function("publish").Warn("failed to publish submission event", "type", eventType, "error", err)
	}
}

func (s *SubmissionService) publishUpdate(
	ctx context.Context,
	actorEmployeeID string,
	submissionID int,
	status models.SubmissionStatus,
) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(events.SUBMISSION_CHANNEL, events.Event{
		Type:            events.SUBMISSION_UPDATED,
		ActorEmployeeID: actorEmployeeID,
		Data: map[string]any{
			"submissionId": submissionID,
			"status":       status,
		},
	})
	if err != nil {
		s.log.TraceFromContext(ctx).Function("publishUpdate").Warn("failed to publish submission event", "error", err)
	}
}

// checkEntries builds the audit entries for one check action: a
// check/uncheck when the flag flipped, a note entry when the text changed and
// a status entry when the submission moved.
func checkEntries(
	schedule *models.ChecklistSchedule,
	submission *models.ChecklistSubmission,
	before, after *models.ChecklistSubmissionDetail,
	newStatus models.SubmissionStatus,
) []models.ChecklistLog {
	activityName := ""
	if after.Item != nil {
		activityName = after.Item.ActivityName
	}
	submissionDate := utils.FormatDate(submission.SubmissionDate)

	base := func(entity string, entityID int, activity models.AuditActivity) models.ChecklistLog {
		return models.ChecklistLog{
			ChecklistMasterID: schedule.ChecklistMasterID,
			EntityType:        entity,
			EntityID:          entityID,
			Activity:          activity,
		}
	}
	detailSnapshot := func(detail *models.ChecklistSubmissionDetail) datatypes.JSONMap {
		snapshot := datatypes.JSONMap{
			"activityName":   activityName,
			"submissionDate": submissionDate,
			"schedule":       schedule.Name,
			"isChecked":      detail.IsChecked,
		}
		if detail.Notes != nil {
			snapshot["notes"] = *detail.Notes
		}
		return snapshot
	}

	var entries []models.ChecklistLog

	if before.IsChecked != after.IsChecked {
		activity := models.ActivityUncheckItem
		if after.IsChecked {
			activity = models.ActivityCheckItem
		}
		entry := base(models.EntitySubmissionDetail, after.ID, activity)
		entry.Before = detailSnapshot(before)
		entry.After = detailSnapshot(after)
		entries = append(entries, entry)
	}

	if activity, changed := noteActivity(before.Notes, after.Notes); changed {
		entry := base(models.EntitySubmissionDetail, after.ID, activity)
		entry.Before = detailSnapshot(before)
		entry.After = detailSnapshot(after)
		entries = append(entries, entry)
	}

	if submission.Status != newStatus {
		entry := base(models.EntitySubmission, submission.ID, models.ActivitySubmissionStatusChanged)
		entry.Before = datatypes.JSONMap{"status": string(submission.Status)}
		entry.After = datatypes.JSONMap{
			"status":         string(newStatus),
			"submissionDate": submissionDate,
			"schedule":       schedule.Name,
		}
		entries = append(entries, entry)
	}

	return entries
}

func noteActivity(before, after *string) (models.AuditActivity, bool) {
	switch {
	case before == nil && after == nil:
		return "", false
	case before == nil:
		return models.ActivityAddNote, true
	case after == nil:
		return models.ActivityRemoveNote, true
	case *before != *after:
		return models.ActivityChangeNote, true
	default:
		return "", false
	}
}

func completionRate(checked, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(checked)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}

func masterLabel(master *models.ChecklistMaster, masterID int) string {
	if master != nil && master.Name != "" {
		return `"` + master.Name + `"`
	}
	return "#" + strconv.Itoa(masterID)
}
