package repositories

import (
	"errors"

	"gorm.io/gorm"
)

type Repository struct {
	User                ChecklistUserRepository
	ChecklistType       ChecklistTypeRepository
	ChecklistMaster     ChecklistMasterRepository
	ChecklistSchedule   ChecklistScheduleRepository
	ChecklistSubmission ChecklistSubmissionRepository
	ChecklistLog        ChecklistLogRepository
}

func New() Repository {
	return Repository{
		User:                NewUserRepository(),
		ChecklistType:       NewChecklistTypeRepository(),
		ChecklistMaster:     NewChecklistMasterRepository(),
		ChecklistSchedule:   NewChecklistScheduleRepository(),
		ChecklistSubmission: NewChecklistSubmissionRepository(),
		ChecklistLog:        NewChecklistLogRepository(),
	}
}

// IsNotFound reports whether err is GORM's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
