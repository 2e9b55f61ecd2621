package repositories

import (
	"context"
	"time"

	"checklist/internal/utils"
	. "checklist/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

type ChecklistScheduleRepository interface {
	List(ctx context.Context, tx *gorm.DB) ([]*ChecklistSchedule, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int) (*ChecklistSchedule, error)
	Create(ctx context.Context, tx *gorm.DB, schedule *ChecklistSchedule) error
	Update(ctx context.Context, tx *gorm.DB, schedule *ChecklistSchedule) error
	Delete(ctx context.Context, tx *gorm.DB, id int) error
	ListEligible(ctx context.Context, tx *gorm.DB, date time.Time) ([]*ChecklistSchedule, error)
}

type checklistScheduleRepository struct {
	log logger.Logger
}

func NewChecklistScheduleRepository() ChecklistScheduleRepository {
	return &checklistScheduleRepository{log: logger.New("checklistScheduleRepository")}
}

// List preloads masters including soft-deleted ones so callers can report them.
func (r *checklistScheduleRepository) List(
	ctx context.Context,
	tx *gorm.DB,
) ([]*ChecklistSchedule, error) {
	log := r.log.Function("List")

	var schedules []*ChecklistSchedule
	err := tx.WithContext(ctx).
		Preload("Master", unscoped).
		Order("id DESC").
		Find(&schedules).Error
	if err != nil {
		return nil, log.Err("failed to list checklist schedules", err)
	}

	return schedules, nil
}

// GetByID preloads the master even when it is soft-deleted; callers decide how
// to report an unavailable master.
func (r *checklistScheduleRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id int,
) (*ChecklistSchedule, error) {
	log := r.log.Function("GetByID")

	var schedule ChecklistSchedule
	err := tx.WithContext(ctx).
		Preload("Master", unscoped).
		Preload("Master.Items", byPosition).
		First(&schedule, id).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, log.Err("failed to get checklist schedule", err, "id", id)
	}

	return &schedule, nil
}

func (r *checklistScheduleRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	schedule *ChecklistSchedule,
) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Omit("Master", "Creator").Create(schedule).Error; err != nil {
		return log.Err("failed to create checklist schedule", err, "name", schedule.Name)
	}

	return nil
}

func (r *checklistScheduleRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	schedule *ChecklistSchedule,
) error {
	log := r.log.Function("Update")

	err := tx.WithContext(ctx).
		Model(&ChecklistSchedule{}).
		Where("id = ?", schedule.ID).
		Updates(map[string]any{
			"checklist_master_id": schedule.ChecklistMasterID,
			"periode_type":        schedule.PeriodeType,
			"schedule_details":    schedule.ScheduleDetails,
			"end_date":            schedule.EndDate,
		}).Error
	if err != nil {
		return log.Err("failed to update checklist schedule", err, "id", schedule.ID)
	}

	return nil
}

func (r *checklistScheduleRepository) Delete(ctx context.Context, tx *gorm.DB, id int) error {
	log := r.log.Function("Delete")

	result := tx.WithContext(ctx).Delete(&ChecklistSchedule{}, id)
	if result.Error != nil {
		return log.Err("failed to delete checklist schedule", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// ListEligible returns schedules whose window includes date and whose master is
// live. Recurrence matching is left to the caller.
func (r *checklistScheduleRepository) ListEligible(
	ctx context.Context,
	tx *gorm.DB,
	date time.Time,
) ([]*ChecklistSchedule, error) {
	log := r.log.Function("ListEligible")

	var schedules []*ChecklistSchedule
	err := tx.WithContext(ctx).
		Joins("JOIN checklist_masters ON checklist_masters.id = checklist_schedules.checklist_master_id AND checklist_masters.deleted_at IS NULL").
		Where("(checklist_schedules.end_date IS NULL OR checklist_schedules.end_date >= ?)", utils.FormatDate(date)).
		Preload("Master").
		Preload("Master.Items", byPosition).
		Order("checklist_schedules.id ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, log.Err("failed to list eligible schedules", err, "date", utils.FormatDate(date))
	}

	return schedules, nil
}
