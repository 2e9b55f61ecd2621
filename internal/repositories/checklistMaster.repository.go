package repositories

import (
	"context"

	. "checklist/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

type ChecklistMasterRepository interface {
	List(ctx context.Context, tx *gorm.DB) ([]*ChecklistMaster, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int) (*ChecklistMaster, error)
	Create(ctx context.Context, tx *gorm.DB, master *ChecklistMaster) error
	Update(ctx context.Context, tx *gorm.DB, master *ChecklistMaster) error
	Delete(ctx context.Context, tx *gorm.DB, id int) error
}

type checklistMasterRepository struct {
	log logger.Logger
}

func NewChecklistMasterRepository() ChecklistMasterRepository {
	return &checklistMasterRepository{log: logger.New("checklistMasterRepository")}
}

func (r *checklistMasterRepository) List(
	ctx context.Context,
	tx *gorm.DB,
) ([]*ChecklistMaster, error) {
	log := r.log.Function("List")

	var masters []*ChecklistMaster
	err := tx.WithContext(ctx).
		Preload("Type").
		Preload("Items", byPosition).
		Order("name ASC").
		Find(&masters).Error
	if err != nil {
		return nil, log.Err("failed to list checklist masters", err)
	}

	return masters, nil
}

func (r *checklistMasterRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id int,
) (*ChecklistMaster, error) {
	log := r.log.Function("GetByID")

	var master ChecklistMaster
	err := tx.WithContext(ctx).
		Preload("Type").
		Preload("Creator").
		Preload("Items", byPosition).
		First(&master, id).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, log.Err("failed to get checklist master", err, "id", id)
	}

	return &master, nil
}

// Create inserts the master together with its items.
func (r *checklistMasterRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	master *ChecklistMaster,
) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Omit("Type", "Creator").Create(master).Error; err != nil {
		return log.Err("failed to create checklist master", err, "name", master.Name)
	}

	log.Info("Checklist master created", "id", master.ID, "items", len(master.Items))
	return nil
}

// Update saves the master header and reconciles its items with master.Items:
// items whose ids are absent are soft-deleted, listed ids are updated in place
// and items without an id are inserted. Positions follow slice order.
func (r *checklistMasterRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	master *ChecklistMaster,
) error {
	log := r.log.Function("Update")
	db := tx.WithContext(ctx)

	err := db.Model(&ChecklistMaster{}).
		Where("id = ?", master.ID).
		Updates(map[string]any{
			"name":              master.Name,
			"checklist_type_id": master.ChecklistTypeID,
		}).Error
	if err != nil {
		return log.Err("failed to update checklist master", err, "id", master.ID)
	}

	var existingIDs []int
	err = db.Model(&ChecklistItem{}).
		Where("checklist_master_id = ?", master.ID).
		Pluck("id", &existingIDs).Error
	if err != nil {
		return log.Err("failed to load checklist items", err, "id", master.ID)
	}

	existing := make(map[int]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}

	keep := make(map[int]bool, len(master.Items))
	for _, item := range master.Items {
		if existing[item.ID] {
			keep[item.ID] = true
		}
	}

	var removed []int
	for _, id := range existingIDs {
		if !keep[id] {
			removed = append(removed, id)
		}
	}

	if len(removed) > 0 {
		if err := db.Where("id IN ?", removed).Delete(&ChecklistItem{}).Error; err != nil {
			return log.Err("failed to remove checklist items", err, "id", master.ID)
		}
	}

	// Park live positions below zero so renumbering never trips the
	// (master, position) unique index halfway through.
	err = db.Model(&ChecklistItem{}).
		Where("checklist_master_id = ?", master.ID).
		Update("position", gorm.Expr("-position")).Error
	if err != nil {
		return log.Err("failed to reset item positions", err, "id", master.ID)
	}

	for i := range master.Items {
		item := &master.Items[i]
		item.ChecklistMasterID = master.ID
		item.Position = i + 1

		if keep[item.ID] {
			err = db.Model(&ChecklistItem{}).
				Where("id = ?", item.ID).
				Updates(map[string]any{
					"activity_name": item.ActivityName,
					"is_required":   item.IsRequired,
					"position":      item.Position,
				}).Error
		} else {
			item.ID = 0
			err = db.Create(item).Error
		}
		if err != nil {
			return log.Err("failed to save checklist item", err, "id", master.ID, "position", item.Position)
		}
	}

	return nil
}

// Delete soft-deletes the master. Its items stay so historical submissions can
// still display them.
func (r *checklistMasterRepository) Delete(ctx context.Context, tx *gorm.DB, id int) error {
	log := r.log.Function("Delete")

	result := tx.WithContext(ctx).Delete(&ChecklistMaster{}, id)
	if result.Error != nil {
		return log.Err("failed to delete checklist master", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
