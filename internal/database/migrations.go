package database

import (
	"checklist/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// ModelsToMigrate lists every table owned by the service, parents first.
var ModelsToMigrate = []any{
	&models.User{},
	&models.ChecklistType{},
	&models.ChecklistMaster{},
	&models.ChecklistItem{},
	&models.ChecklistSchedule{},
	&models.ChecklistSubmission{},
	&models.ChecklistSubmissionDetail{},
	&models.ChecklistLog{},
}

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	for _, model := range ModelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("Failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}
