package repositories

import (
	"context"

	. "checklist/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

type ChecklistLogRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *ChecklistLog) error
	ListByMaster(
		ctx context.Context,
		tx *gorm.DB,
		masterID int,
		activity AuditActivity,
	) ([]ChecklistLog, error)
}

type checklistLogRepository struct {
	log logger.Logger
}

func NewChecklistLogRepository() ChecklistLogRepository {
	return &checklistLogRepository{log: logger.New("checklistLogRepository")}
}

func (r *checklistLogRepository) Create(ctx context.Context, tx *gorm.DB, entry *ChecklistLog) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return log.Err("failed to create checklist log", err, "activity", entry.Activity)
	}

	return nil
}

// ListByMaster returns the newest entries first. An empty activity matches all.
func (r *checklistLogRepository) ListByMaster(
	ctx context.Context,
	tx *gorm.DB,
	masterID int,
	activity AuditActivity,
) ([]ChecklistLog, error) {
	log := r.log.Function("ListByMaster")

	query := gorm.G[ChecklistLog](tx).Where("checklist_master_id = ?", masterID)
	if activity != "" {
		query = query.Where("activity = ?", activity)
	}

	entries, err := query.Order("created_at DESC, id DESC").Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list checklist logs", err, "masterID", masterID)
	}

	return entries, nil
}
