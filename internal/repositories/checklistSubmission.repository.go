package repositories

import (
	"context"
	"sort"
	"time"

	. "checklist/internal/models"
	"checklist/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChecklistSubmissionRepository interface {
	FindByScheduleDate(
		ctx context.Context,
		tx *gorm.DB,
		scheduleID int,
		date time.Time,
	) (*ChecklistSubmission, error)
	InsertIfAbsent(ctx context.Context, tx *gorm.DB, submission *ChecklistSubmission) (bool, error)
	CreateDetails(ctx context.Context, tx *gorm.DB, details []ChecklistSubmissionDetail) error
	GetByID(ctx context.Context, tx *gorm.DB, id int) (*ChecklistSubmission, error)
	ListByDate(ctx context.Context, tx *gorm.DB, date time.Time) ([]*ChecklistSubmission, error)
	ListForSchedulesOnDate(
		ctx context.Context,
		tx *gorm.DB,
		scheduleIDs []int,
		date time.Time,
	) ([]*ChecklistSubmission, error)
	LockForUpdate(ctx context.Context, tx *gorm.DB, id int) (*ChecklistSubmission, error)
	GetDetail(ctx context.Context, tx *gorm.DB, detailID int) (*ChecklistSubmissionDetail, error)
	UpdateDetail(ctx context.Context, tx *gorm.DB, detail *ChecklistSubmissionDetail) error
	CountDetails(ctx context.Context, tx *gorm.DB, submissionID int) (checked int, total int, err error)
	UpdateStatus(
		ctx context.Context,
		tx *gorm.DB,
		submissionID int,
		status SubmissionStatus,
		submittedBy *int,
	) error
}

type checklistSubmissionRepository struct {
	log logger.Logger
}

func NewChecklistSubmissionRepository() ChecklistSubmissionRepository {
	return &checklistSubmissionRepository{log: logger.New("checklistSubmissionRepository")}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Details").
		Preload("Details.Item", unscoped)
}

// sortDetails orders details by the position of their item, then by id.
func sortDetails(submission *ChecklistSubmission) {
	sort.SliceStable(submission.Details, func(i, j int) bool {
		a, b := submission.Details[i], submission.Details[j]
		if a.Item != nil && b.Item != nil && a.Item.Position != b.Item.Position {
			return a.Item.Position < b.Item.Position
		}
		return a.ID < b.ID
	})
}

func (r *checklistSubmissionRepository) FindByScheduleDate(
	ctx context.Context,
	tx *gorm.DB,
	scheduleID int,
	date time.Time,
) (*ChecklistSubmission, error) {
	log := r.log.Function("FindByScheduleDate")

	var submission ChecklistSubmission
	err := withDetails(tx.WithContext(ctx)).
		Where("checklist_schedule_id = ? AND submission_date = ?", scheduleID, utils.FormatDate(date)).
		First(&submission).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, log.Err(
			"failed to find submission",
			err,
			"scheduleID",
			scheduleID,
			"date",
			utils.FormatDate(date),
		)
	}

	sortDetails(&submission)
	return &submission, nil
}

// InsertIfAbsent inserts submission unless one already exists for its
// (schedule, date). It reports whether this call created the row; a concurrent
// inserter blocks here until the other transaction finishes.
func (r *checklistSubmissionRepository) InsertIfAbsent(
	ctx context.Context,
	tx *gorm.DB,
	submission *ChecklistSubmission,
) (bool, error) {
	log := r.log.Function("InsertIfAbsent")

	result := tx.WithContext(ctx).
		Omit("Schedule", "Submitter", "Details").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "checklist_schedule_id"}, {Name: "submission_date"}},
			DoNothing: true,
		}).
		Create(submission)
	if result.Error != nil {
		return false, log.Err(
			"failed to insert submission",
			result.Error,
			"scheduleID",
			submission.ChecklistScheduleID,
		)
	}

	return result.RowsAffected == 1, nil
}

func (r *checklistSubmissionRepository) CreateDetails(
	ctx context.Context,
	tx *gorm.DB,
	details []ChecklistSubmissionDetail,
) error {
	log := r.log.Function("CreateDetails")

	if len(details) == 0 {
		return nil
	}

	err := tx.WithContext(ctx).
		Omit("Item", "Submission").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_id"}, {Name: "item_id"}},
			DoNothing: true,
		}).
		Create(&details).Error
	if err != nil {
		return log.Err("failed to create submission details", err, "submissionID", details[0].SubmissionID)
	}

	return nil
}

func (r *checklistSubmissionRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id int,
) (*ChecklistSubmission, error) {
	log := r.log.Function("GetByID")

	var submission ChecklistSubmission
	err := withDetails(tx.WithContext(ctx)).
		Preload("Schedule", unscoped).
		Preload("Schedule.Master", unscoped).
		Preload("Submitter").
		First(&submission, id).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, log.Err("failed to get submission", err, "id", id)
	}

	sortDetails(&submission)
	return &submission, nil
}

func (r *checklistSubmissionRepository) ListByDate(
	ctx context.Context,
	tx *gorm.DB,
	date time.Time,
) ([]*ChecklistSubmission, error) {
	log := r.log.Function("ListByDate")

	var submissions []*ChecklistSubmission
	err := withDetails(tx.WithContext(ctx)).
		Preload("Schedule", unscoped).
		Preload("Schedule.Master", unscoped).
		Preload("Submitter").
		Where("submission_date = ?", utils.FormatDate(date)).
		Order("id ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, log.Err("failed to list submissions", err, "date", utils.FormatDate(date))
	}

	for _, submission := range submissions {
		sortDetails(submission)
	}
	return submissions, nil
}

func (r *checklistSubmissionRepository) ListForSchedulesOnDate(
	ctx context.Context,
	tx *gorm.DB,
	scheduleIDs []int,
	date time.Time,
) ([]*ChecklistSubmission, error) {
	log := r.log.Function("ListForSchedulesOnDate")

	if len(scheduleIDs) == 0 {
		return nil, nil
	}

	var submissions []*ChecklistSubmission
	err := withDetails(tx.WithContext(ctx)).
		Where("checklist_schedule_id IN ? AND submission_date = ?", scheduleIDs, utils.FormatDate(date)).
		Find(&submissions).Error
	if err != nil {
		return nil, log.Err("failed to list submissions for schedules", err, "date", utils.FormatDate(date))
	}

	return submissions, nil
}

// LockForUpdate takes a row lock on the submission for the rest of tx, which
// serialises status recomputation between concurrent check actions.
func (r *checklistSubmissionRepository) LockForUpdate(
	ctx context.Context,
	tx *gorm.DB,
	id int,
) (*ChecklistSubmission, error) {
	log := r.log.Function("LockForUpdate")

	var submission ChecklistSubmission
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&submission, id).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, log.Err("failed to lock submission", err, "id", id)
	}

	return &submission, nil
}

// GetDetail loads a detail with its item, submission, schedule and master. The
// item, schedule and master are loaded even when soft-deleted.
func (r *checklistSubmissionRepository) GetDetail(
	ctx context.Context,
	tx *gorm.DB,
	detailID int,
) (*ChecklistSubmissionDetail, error) {
	log := r.log.Function("GetDetail")

	var detail ChecklistSubmissionDetail
	err := tx.WithContext(ctx).
		Preload("Item", unscoped).
		Preload("Submission").
		Preload("Submission.Schedule", unscoped).
		Preload("Submission.Schedule.Master", unscoped).
		First(&detail, detailID).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, log.Err("failed to get submission detail", err, "id", detailID)
	}

	return &detail, nil
}

func (r *checklistSubmissionRepository) UpdateDetail(
	ctx context.Context,
	tx *gorm.DB,
	detail *ChecklistSubmissionDetail,
) error {
	log := r.log.Function("UpdateDetail")

	err := tx.WithContext(ctx).
		Model(&ChecklistSubmissionDetail{}).
		Where("id = ?", detail.ID).
		Updates(map[string]any{
			"is_checked": detail.IsChecked,
			"notes":      detail.Notes,
		}).Error
	if err != nil {
		return log.Err("failed to update submission detail", err, "id", detail.ID)
	}

	return nil
}

func (r *checklistSubmissionRepository) CountDetails(
	ctx context.Context,
	tx *gorm.DB,
	submissionID int,
) (int, int, error) {
	log := r.log.Function("CountDetails")

	var counts struct {
		Checked int
		Total   int
	}
	err := tx.WithContext(ctx).
		Model(&ChecklistSubmissionDetail{}).
		Select("COALESCE(SUM(CASE WHEN is_checked THEN 1 ELSE 0 END), 0) AS checked, COUNT(*) AS total").
		Where("submission_id = ?", submissionID).
		Scan(&counts).Error
	if err != nil {
		return 0, 0, log.Err("failed to count submission details", err, "submissionID", submissionID)
	}

	return counts.Checked, counts.Total, nil
}

func (r *checklistSubmissionRepository) UpdateStatus(
	ctx context.Context,
	tx *gorm.DB,
	submissionID int,
	status SubmissionStatus,
	submittedBy *int,
) error {
	log := r.log.Function("UpdateStatus")

	err := tx.WithContext(ctx).
		Model(&ChecklistSubmission{}).
		Where("id = ?", submissionID).
		Updates(map[string]any{
			"status":       status,
			"submitted_by": submittedBy,
		}).Error
	if err != nil {
		return log.Err("failed to update submission status", err, "submissionID", submissionID)
	}

	return nil
}
