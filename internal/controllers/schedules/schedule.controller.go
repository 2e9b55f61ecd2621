package scheduleController

import (
	"context"
	"slices"
	"strings"
	"time"

	. "checklist/internal/models"
	"checklist/internal/repositories"
	"checklist/internal/services"
	"checklist/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const scheduleCodeLength = 6

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

type CreateScheduleRequest struct {
	ChecklistMasterID int      `json:"checklistMasterId" validate:"required,gt=0"`
	PeriodeType       string   `json:"periodeType"       validate:"required,oneof=daily weekly monthly specific-dates"`
	ScheduleDetails   []string `json:"scheduleDetails"   validate:"omitempty,max=366,dive,max=32"`
	EndDate           *string  `json:"endDate"`
	EmployeeID        string   `json:"employeeId"`
}

// UpdateScheduleRequest changes only the fields that are present. An empty
// endDate clears the end date.
type UpdateScheduleRequest struct {
	ChecklistMasterID *int      `json:"checklistMasterId" validate:"omitempty,gt=0"`
	PeriodeType       *string   `json:"periodeType"       validate:"omitempty,oneof=daily weekly monthly specific-dates"`
	ScheduleDetails   *[]string `json:"scheduleDetails"   validate:"omitempty,max=366,dive,max=32"`
	EndDate           *string   `json:"endDate"`
	EmployeeID        string    `json:"employeeId"`
}

type ScheduleController struct {
	scheduleRepo repositories.ChecklistScheduleRepository
	masterRepo   repositories.ChecklistMasterRepository
	tx           services.Transactor
	users        *services.UserResolver
	audit        services.AuditRecorder
	today        func() time.Time
	log          logger.Logger
}

type ScheduleControllerInterface interface {
	List(ctx context.Context) ([]*ChecklistSchedule, error)
	Get(ctx context.Context, id int) (*ChecklistSchedule, error)
	Create(ctx context.Context, request *CreateScheduleRequest) (*ChecklistSchedule, error)
	Update(ctx context.Context, id int, request *UpdateScheduleRequest) (*ChecklistSchedule, error)
	Delete(ctx context.Context, id int, employeeID string) error
}

func New(repos repositories.Repository, services services.Service) ScheduleControllerInterface {
	return &ScheduleController{
		scheduleRepo: repos.ChecklistSchedule,
		masterRepo:   repos.ChecklistMaster,
		tx:           services.Transaction,
		users:        services.Users,
		audit:        services.Audit,
		today:        services.Submission.Today,
		log:          logger.New("scheduleController"),
	}
}

func (c *ScheduleController) List(ctx context.Context) ([]*ChecklistSchedule, error) {
	return c.scheduleRepo.List(ctx, c.tx.DB(ctx))
}

func (c *ScheduleController) Get(ctx context.Context, id int) (*ChecklistSchedule, error) {
	schedule, err := c.scheduleRepo.GetByID(ctx, c.tx.DB(ctx), id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, services.NotFoundError("checklist schedule %d not found", id)
		}
		return nil, err
	}
	return schedule, nil
}

func (c *ScheduleController) Create(
	ctx context.Context,
	request *CreateScheduleRequest,
) (*ChecklistSchedule, error) {
	log := c.log.TraceFromContext(ctx).Function("Create")

	if err := utils.ValidateStruct(request); err != nil {
		return nil, services.ValidationError("%s", err)
	}

	periode := PeriodeType(request.PeriodeType)
	details, err := normalizeDetails(periode, request.ScheduleDetails)
	if err != nil {
		return nil, err
	}

	today := c.today()
	var endDate *time.Time
	if request.EndDate != nil {
		if endDate, err = parseEndDate(*request.EndDate, today); err != nil {
			return nil, err
		}
	}

	var creator *User
	if utils.CleanEmployeeID(request.EmployeeID) != "" {
		if creator, err = c.users.Resolve(ctx, c.tx.DB(ctx), request.EmployeeID); err != nil {
			return nil, err
		}
	}

	schedule := &ChecklistSchedule{
		ChecklistMasterID: request.ChecklistMasterID,
		Name:              scheduleName(today),
		PeriodeType:       periode,
		ScheduleDetails:   details,
		EndDate:           endDate,
	}
	if creator != nil {
		schedule.CreatedBy = &creator.ID
	}

	var master *ChecklistMaster
	err = c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		if master, err = c.liveMaster(ctx, tx, request.ChecklistMasterID); err != nil {
			return err
		}
		return c.scheduleRepo.Create(ctx, tx, schedule)
	})
	if err != nil {
		return nil, err
	}

	entry := ChecklistLog{
		ChecklistMasterID: master.ID,
		EntityType:        EntitySchedule,
		EntityID:          schedule.ID,
		Activity:          ActivityCreateSchedule,
		After:             scheduleSnapshot(schedule, master.Name),
	}
	if creator != nil {
		entry.SetActor(creator)
	} else {
		entry.SetActor(c.users.ForLogging(ctx, c.tx.DB(ctx), request.EmployeeID, nil))
	}
	c.audit.Record(ctx, entry)

	log.Info("Checklist schedule created", "id", schedule.ID, "name", schedule.Name, "periodeType", periode)
	return c.Get(ctx, schedule.ID)
}

func (c *ScheduleController) Update(
	ctx context.Context,
	id int,
	request *UpdateScheduleRequest,
) (*ChecklistSchedule, error) {
	log := c.log.TraceFromContext(ctx).Function("Update")

	if err := utils.ValidateStruct(request); err != nil {
		return nil, services.ValidationError("%s", err)
	}

	var entries []ChecklistLog
	var createdBy *int

	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		existing, err := c.scheduleRepo.GetByID(ctx, tx, id)
		if err != nil {
			if repositories.IsNotFound(err) {
				return services.NotFoundError("checklist schedule %d not found", id)
			}
			return err
		}
		createdBy = existing.CreatedBy

		before := *existing
		beforeMaster := masterName(existing.Master)
		afterMaster := beforeMaster
		updated := *existing

		if request.ChecklistMasterID != nil && *request.ChecklistMasterID != existing.ChecklistMasterID {
			master, err := c.liveMaster(ctx, tx, *request.ChecklistMasterID)
			if err != nil {
				return err
			}
			updated.ChecklistMasterID = master.ID
			afterMaster = master.Name
		}

		if request.PeriodeType != nil {
			updated.PeriodeType = PeriodeType(*request.PeriodeType)
		}
		switch {
		case request.ScheduleDetails != nil:
			if updated.ScheduleDetails, err = normalizeDetails(updated.PeriodeType, *request.ScheduleDetails); err != nil {
				return err
			}
		case updated.PeriodeType != before.PeriodeType:
			if updated.ScheduleDetails, err = normalizeDetails(updated.PeriodeType, nil); err != nil {
				return err
			}
		}

		if request.EndDate != nil {
			if updated.EndDate, err = parseEndDate(*request.EndDate, c.today()); err != nil {
				return err
			}
		}

		if err := c.scheduleRepo.Update(ctx, tx, &updated); err != nil {
			return err
		}

		entries = scheduleUpdateEntries(&before, &updated, beforeMaster, afterMaster)
		return nil
	})
	if err != nil {
		return nil, err
	}

	actor := c.users.ForLogging(ctx, c.tx.DB(ctx), request.EmployeeID, createdBy)
	for i := range entries {
		entries[i].SetActor(actor)
	}
	c.audit.Record(ctx, entries...)

	log.Info("Checklist schedule updated", "id", id, "changes", len(entries))
	return c.Get(ctx, id)
}

func (c *ScheduleController) Delete(ctx context.Context, id int, employeeID string) error {
	log := c.log.TraceFromContext(ctx).Function("Delete")

	var entry ChecklistLog
	var createdBy *int

	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		existing, err := c.scheduleRepo.GetByID(ctx, tx, id)
		if err != nil {
			if repositories.IsNotFound(err) {
				return services.NotFoundError("checklist schedule %d not found", id)
			}
			return err
		}
		createdBy = existing.CreatedBy

		entry = ChecklistLog{
			ChecklistMasterID: existing.ChecklistMasterID,
			EntityType:        EntitySchedule,
			EntityID:          existing.ID,
			Activity:          ActivityDeleteSchedule,
			Before:            scheduleSnapshot(existing, masterName(existing.Master)),
		}
		return c.scheduleRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	entry.SetActor(c.users.ForLogging(ctx, c.tx.DB(ctx), employeeID, createdBy))
	c.audit.Record(ctx, entry)

	log.Info("Checklist schedule deleted", "id", id)
	return nil
}

func (c *ScheduleController) liveMaster(ctx context.Context, tx *gorm.DB, id int) (*ChecklistMaster, error) {
	master, err := c.masterRepo.GetByID(ctx, tx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, services.ValidationError("checklist master %d does not exist", id)
		}
		return nil, err
	}
	return master, nil
}

// normalizeDetails checks schedule_details against the periode type and
// returns them trimmed, lower-cased for weekdays and de-duplicated.
func normalizeDetails(periode PeriodeType, details []string) ([]string, error) {
	if !periode.RequiresDetails() {
		return []string{}, nil
	}
	if len(details) == 0 {
		return nil, services.ValidationError("scheduleDetails are required for %s schedules", periode)
	}

	normalized := make([]string, 0, len(details))
	for _, detail := range details {
		value := strings.TrimSpace(detail)

		if periode == PeriodeWeekly {
			value = strings.ToLower(value)
			if !weekdays[value] {
				return nil, services.ValidationError("invalid weekday %q", detail)
			}
		} else {
			date, err := utils.ParseDate(value)
			if err != nil {
				return nil, services.ValidationError("%s", err)
			}
			value = utils.FormatDate(date)
		}

		if !slices.Contains(normalized, value) {
			normalized = append(normalized, value)
		}
	}

	return normalized, nil
}

func parseEndDate(value string, today time.Time) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	date, err := utils.ParseDate(value)
	if err != nil {
		return nil, services.ValidationError("endDate: %s", err)
	}
	if utils.FormatDate(date) < utils.FormatDate(today) {
		return nil, services.ValidationError("endDate %s is before today", utils.FormatDate(date))
	}

	return &date, nil
}

func scheduleName(today time.Time) string {
	return ScheduleNamePrefix + today.Format("20060102") + "-" + utils.RandomCode(scheduleCodeLength)
}

func masterName(master *ChecklistMaster) string {
	if master == nil {
		return ""
	}
	return master.Name
}

func formatEndDate(endDate *time.Time) string {
	if endDate == nil {
		return ""
	}
	return utils.FormatDate(*endDate)
}

func scheduleSnapshot(schedule *ChecklistSchedule, master string) datatypes.JSONMap {
	return datatypes.JSONMap{
		"name":            schedule.Name,
		"master":          master,
		"periodeType":     string(schedule.PeriodeType),
		"scheduleDetails": []string(schedule.ScheduleDetails),
		"period":          FormatPeriod(schedule.PeriodeType, schedule.ScheduleDetails),
		"endDate":         formatEndDate(schedule.EndDate),
	}
}

// scheduleUpdateEntries emits one entry per changed aspect of a schedule, or a
// single generic entry when nothing specific changed.
func scheduleUpdateEntries(
	before, after *ChecklistSchedule,
	beforeMaster, afterMaster string,
) []ChecklistLog {
	entry := func(activity AuditActivity, beforeSnap, afterSnap datatypes.JSONMap) ChecklistLog {
		afterSnap["name"] = after.Name
		return ChecklistLog{
			ChecklistMasterID: after.ChecklistMasterID,
			EntityType:        EntitySchedule,
			EntityID:          after.ID,
			Activity:          activity,
			Before:            beforeSnap,
			After:             afterSnap,
		}
	}

	var entries []ChecklistLog

	if before.ChecklistMasterID != after.ChecklistMasterID {
		entries = append(entries, entry(ActivityUpdateScheduleMaster,
			datatypes.JSONMap{"master": beforeMaster, "checklistMasterId": before.ChecklistMasterID},
			datatypes.JSONMap{"master": afterMaster, "checklistMasterId": after.ChecklistMasterID},
		))
	}

	periodBefore := datatypes.JSONMap{"period": FormatPeriod(before.PeriodeType, before.ScheduleDetails)}
	periodAfter := datatypes.JSONMap{"period": FormatPeriod(after.PeriodeType, after.ScheduleDetails)}
	switch {
	case before.PeriodeType != after.PeriodeType:
		entries = append(entries, entry(ActivityUpdateSchedulePeriod, periodBefore, periodAfter))
	case !slices.Equal(before.ScheduleDetails, after.ScheduleDetails):
		entries = append(entries, entry(ActivityUpdateScheduleDetails, periodBefore, periodAfter))
	}

	if formatEndDate(before.EndDate) != formatEndDate(after.EndDate) {
		entries = append(entries, entry(ActivityUpdateScheduleEndDate,
			datatypes.JSONMap{"endDate": formatEndDate(before.EndDate)},
			datatypes.JSONMap{"endDate": formatEndDate(after.EndDate)},
		))
	}

	if len(entries) == 0 {
		entries = append(entries, entry(ActivityUpdateSchedule, nil, datatypes.JSONMap{}))
	}

	return entries
}
