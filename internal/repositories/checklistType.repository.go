package repositories

import (
	"context"

	. "checklist/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

type ChecklistTypeRepository interface {
	List(ctx context.Context, tx *gorm.DB) ([]ChecklistType, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int) (*ChecklistType, error)
	Create(ctx context.Context, tx *gorm.DB, checklistType *ChecklistType) error
	Delete(ctx context.Context, tx *gorm.DB, id int) error
	CountMasters(ctx context.Context, tx *gorm.DB, id int) (int64, error)
}

type checklistTypeRepository struct {
	log logger.Logger
}

func NewChecklistTypeRepository() ChecklistTypeRepository {
	return &checklistTypeRepository{log: logger.New("checklistTypeRepository")}
}

func (r *checklistTypeRepository) List(ctx context.Context, tx *gorm.DB) ([]ChecklistType, error) {
	log := r.log.Function("List")

	types, err := gorm.G[ChecklistType](tx).Order("name ASC").Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list checklist types", err)
	}

	return types, nil
}

func (r *checklistTypeRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id int,
) (*ChecklistType, error) {
	log := r.log.Function("GetByID")

	checklistType, err := gorm.G[ChecklistType](tx).Where("id = ?", id).First(ctx)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, log.Err("failed to get checklist type", err, "id", id)
	}

	return &checklistType, nil
}

func (r *checklistTypeRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	checklistType *ChecklistType,
) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(checklistType).Error; err != nil {
		return log.Err("failed to create checklist type", err, "name", checklistType.Name)
	}

	return nil
}

// Delete removes the type permanently so its name can be reused.
func (r *checklistTypeRepository) Delete(ctx context.Context, tx *gorm.DB, id int) error {
	log := r.log.Function("Delete")

	result := tx.WithContext(ctx).Unscoped().Delete(&ChecklistType{}, id)
	if result.Error != nil {
		return log.Err("failed to delete checklist type", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *checklistTypeRepository) CountMasters(
	ctx context.Context,
	tx *gorm.DB,
	id int,
) (int64, error) {
	log := r.log.Function("CountMasters")

	var count int64
	err := tx.WithContext(ctx).
		Unscoped().
		Model(&ChecklistMaster{}).
		Where("checklist_type_id = ?", id).
		Count(&count).Error
	if err != nil {
		return 0, log.Err("failed to count masters for type", err, "id", id)
	}

	return count, nil
}
