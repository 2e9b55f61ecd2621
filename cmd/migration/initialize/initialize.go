package initialize

import (
	. "checklist/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

var defaultChecklistTypes = []string{"Safety", "Maintenance", "Housekeeping"}

func InitializeTables(db *gorm.DB, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if err := initializeChecklistTypes(db, log); err != nil {
		return log.Err("failed to initialize checklist types", err)
	}

	log.Info("Table initialization complete")
	return nil
}

func initializeChecklistTypes(db *gorm.DB, log logger.Logger) error {
	for _, name := range defaultChecklistTypes {
		checklistType := ChecklistType{Name: name}
		result := db.Where(ChecklistType{Name: name}).FirstOrCreate(&checklistType)
		if result.Error != nil {
			return log.Err("failed to create checklist type", result.Error, "name", name)
		}
		if result.RowsAffected > 0 {
			log.Info("Initialized checklist type", "name", name)
		}
	}

	log.Info("Checklist type reference data initialized", "count", len(defaultChecklistTypes))
	return nil
}
