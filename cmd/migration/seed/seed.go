package seed

import (
	"time"

	. "checklist/internal/models"
	"checklist/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

var safetyActivities = []string{
	"Inspect fire extinguisher pressure",
	"Check emergency exits are clear",
	"Verify first aid kit is stocked",
	"Test eyewash station",
	"Confirm PPE is available at every station",
}

// Seed creates a demo employee, a daily safety checklist and its schedule.
func Seed(db *gorm.DB, log logger.Logger) error {
	log = log.Function("Seed")
	log.Info("Seeding development data")

	return db.Transaction(func(tx *gorm.DB) error {
		user := User{EmployeeID: "EMP001", Name: "Demo Supervisor", Email: "supervisor@example.com"}
		if err := tx.Where(User{EmployeeID: user.EmployeeID}).FirstOrCreate(&user).Error; err != nil {
			return log.Err("failed to seed user", err)
		}

		checklistType := ChecklistType{Name: "Safety"}
		if err := tx.Where(ChecklistType{Name: "Safety"}).FirstOrCreate(&checklistType).Error; err != nil {
			return log.Err("failed to seed checklist type", err)
		}

		var existing ChecklistMaster
		if err := tx.Where("name = ?", "Daily Safety Check").First(&existing).Error; err == nil {
			log.Info("Seed master already exists", "id", existing.ID)
			return nil
		}

		master := ChecklistMaster{
			Code:            MasterCodePrefix + utils.RandomCode(8),
			Name:            "Daily Safety Check",
			ChecklistTypeID: checklistType.ID,
			CreatedBy:       &user.ID,
		}
		for i, activity := range safetyActivities {
			master.Items = append(master.Items, ChecklistItem{
				ActivityName: activity,
				IsRequired:   true,
				Position:     i + 1,
			})
		}
		if err := tx.Create(&master).Error; err != nil {
			return log.Err("failed to seed master", err)
		}

		schedule := ChecklistSchedule{
			ChecklistMasterID: master.ID,
			Name:              ScheduleNamePrefix + time.Now().Format("20060102") + "-" + utils.RandomCode(6),
			PeriodeType:       PeriodeDaily,
			CreatedBy:         &user.ID,
		}
		if err := tx.Create(&schedule).Error; err != nil {
			return log.Err("failed to seed schedule", err)
		}

		log.Info("Seeded daily safety check", "masterID", master.ID, "scheduleID", schedule.ID)
		return nil
	})
}
