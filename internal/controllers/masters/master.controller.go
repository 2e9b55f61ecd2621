package masterController

import (
	"context"
	"strings"

	. "checklist/internal/models"
	"checklist/internal/repositories"
	"checklist/internal/services"
	"checklist/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const masterCodeLength = 8

type ItemRequest struct {
	ID           int    `json:"id"`
	ActivityName string `json:"activityName" validate:"notblank,max=255"`
	IsRequired   *bool  `json:"isRequired"`
}

// MasterRequest creates or replaces a master. Items are stored in request
// order; on update, items carrying an existing id are kept and the rest of the
// current items are removed.
type MasterRequest struct {
	Name            string        `json:"name"            validate:"notblank,max=255"`
	ChecklistTypeID int           `json:"checklistTypeId" validate:"required,gt=0"`
	Items           []ItemRequest `json:"items"           validate:"min=1,dive"`
	EmployeeID      string        `json:"employeeId"`
}

type MasterController struct {
	masterRepo repositories.ChecklistMasterRepository
	typeRepo   repositories.ChecklistTypeRepository
	logRepo    repositories.ChecklistLogRepository
	tx         services.Transactor
	users      *services.UserResolver
	audit      services.AuditRecorder
	log        logger.Logger
}

type MasterControllerInterface interface {
	List(ctx context.Context) ([]*ChecklistMaster, error)
	Get(ctx context.Context, id int) (*ChecklistMaster, error)
	Create(ctx context.Context, request *MasterRequest) (*ChecklistMaster, error)
	Update(ctx context.Context, id int, request *MasterRequest) (*ChecklistMaster, error)
	Delete(ctx context.Context, id int, employeeID string) error
	Logs(ctx context.Context, id int, activity string) ([]ChecklistLog, error)
}

func New(repos repositories.Repository, services services.Service) MasterControllerInterface {
	return &MasterController{
		masterRepo: repos.ChecklistMaster,
		typeRepo:   repos.ChecklistType,
		logRepo:    repos.ChecklistLog,
		tx:         services.Transaction,
		users:      services.Users,
		audit:      services.Audit,
		log:        logger.New("masterController"),
	}
}

func (c *MasterController) List(ctx context.Context) ([]*ChecklistMaster, error) {
	return c.masterRepo.List(ctx, c.tx.DB(ctx))
}

func (c *MasterController) Get(ctx context.Context, id int) (*ChecklistMaster, error) {
	master, err := c.masterRepo.GetByID(ctx, c.tx.DB(ctx), id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, services.NotFoundError("checklist master %d not found", id)
		}
		return nil, err
	}
	return master, nil
}

func (c *MasterController) Create(ctx context.Context, request *MasterRequest) (*ChecklistMaster, error) {
	log := c.log.TraceFromContext(ctx).Function("Create")

	if err := utils.ValidateStruct(request); err != nil {
		return nil, services.ValidationError("%s", err)
	}

	creator, err := c.creator(ctx, request.EmployeeID)
	if err != nil {
		return nil, err
	}

	master := &ChecklistMaster{
		Code:            MasterCodePrefix + utils.RandomCode(masterCodeLength),
		Name:            strings.TrimSpace(request.Name),
		ChecklistTypeID: request.ChecklistTypeID,
		Items:           buildItems(request.Items),
	}
	if creator != nil {
		master.CreatedBy = &creator.ID
	}

	err = c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.requireType(ctx, tx, request.ChecklistTypeID); err != nil {
			return err
		}
		return c.masterRepo.Create(ctx, tx, master)
	})
	if err != nil {
		return nil, err
	}

	entry := ChecklistLog{
		ChecklistMasterID: master.ID,
		EntityType:        EntityMaster,
		EntityID:          master.ID,
		Activity:          ActivityCreateMaster,
		After:             masterSnapshot(master),
	}
	entry.SetActor(c.actor(ctx, creator, request.EmployeeID, nil))
	c.audit.Record(ctx, entry)

	log.Info("Checklist master created", "id", master.ID, "code", master.Code, "items", len(master.Items))
	return c.Get(ctx, master.ID)
}

func (c *MasterController) Update(
	ctx context.Context,
	id int,
	request *MasterRequest,
) (*ChecklistMaster, error) {
	log := c.log.TraceFromContext(ctx).Function("Update")

	if err := utils.ValidateStruct(request); err != nil {
		return nil, services.ValidationError("%s", err)
	}

	var before, after datatypes.JSONMap
	var createdBy *int

	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		existing, err := c.masterRepo.GetByID(ctx, tx, id)
		if err != nil {
			if repositories.IsNotFound(err) {
				return services.NotFoundError("checklist master %d not found", id)
			}
			return err
		}
		if err := c.requireType(ctx, tx, request.ChecklistTypeID); err != nil {
			return err
		}
		before = masterSnapshot(existing)
		createdBy = existing.CreatedBy

		existing.Name = strings.TrimSpace(request.Name)
		existing.ChecklistTypeID = request.ChecklistTypeID
		existing.Items = buildItems(request.Items)

		if err := c.masterRepo.Update(ctx, tx, existing); err != nil {
			return err
		}
		after = masterSnapshot(existing)
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := ChecklistLog{
		ChecklistMasterID: id,
		EntityType:        EntityMaster,
		EntityID:          id,
		Activity:          ActivityUpdateMaster,
		Before:            before,
		After:             after,
	}
	entry.SetActor(c.actor(ctx, nil, request.EmployeeID, createdBy))
	c.audit.Record(ctx, entry)

	log.Info("Checklist master updated", "id", id, "items", len(request.Items))
	return c.Get(ctx, id)
}

// Delete soft-deletes the master. Schedules and submissions that reference it
// are left in place.
func (c *MasterController) Delete(ctx context.Context, id int, employeeID string) error {
	log := c.log.TraceFromContext(ctx).Function("Delete")

	var before datatypes.JSONMap
	var createdBy *int

	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		existing, err := c.masterRepo.GetByID(ctx, tx, id)
		if err != nil {
			if repositories.IsNotFound(err) {
				return services.NotFoundError("checklist master %d not found", id)
			}
			return err
		}
		before = masterSnapshot(existing)
		createdBy = existing.CreatedBy

		return c.masterRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	entry := ChecklistLog{
		ChecklistMasterID: id,
		EntityType:        EntityMaster,
		EntityID:          id,
		Activity:          ActivityDeleteMaster,
		Before:            before,
	}
	entry.SetActor(c.actor(ctx, nil, employeeID, createdBy))
	c.audit.Record(ctx, entry)

	log.Info("Checklist master deleted", "id", id)
	return nil
}

// Logs lists the audit trail of a master, newest first. Deleted masters keep
// their trail.
func (c *MasterController) Logs(ctx context.Context, id int, activity string) ([]ChecklistLog, error) {
	if activity != "" && !IsAuditActivity(activity) {
		return nil, services.ValidationError("unknown activity %q", activity)
	}
	return c.logRepo.ListByMaster(ctx, c.tx.DB(ctx), id, AuditActivity(activity))
}

func (c *MasterController) requireType(ctx context.Context, tx *gorm.DB, typeID int) error {
	if _, err := c.typeRepo.GetByID(ctx, tx, typeID); err != nil {
		if repositories.IsNotFound(err) {
			return services.ValidationError("checklist type %d does not exist", typeID)
		}
		return err
	}
	return nil
}

// creator resolves the requesting employee before any transaction opens.
func (c *MasterController) creator(ctx context.Context, employeeID string) (*User, error) {
	if utils.CleanEmployeeID(employeeID) == "" {
		return nil, nil
	}
	return c.users.Resolve(ctx, c.tx.DB(ctx), employeeID)
}

func (c *MasterController) actor(ctx context.Context, resolved *User, employeeID string, createdBy *int) *User {
	if resolved != nil {
		return resolved
	}
	return c.users.ForLogging(ctx, c.tx.DB(ctx), employeeID, createdBy)
}

func buildItems(requests []ItemRequest) []ChecklistItem {
	items := make([]ChecklistItem, len(requests))
	for i, request := range requests {
		required := true
		if request.IsRequired != nil {
			required = *request.IsRequired
		}
		items[i] = ChecklistItem{
			ActivityName: strings.TrimSpace(request.ActivityName),
			IsRequired:   required,
			Position:     i + 1,
		}
		items[i].ID = request.ID
	}
	return items
}

func masterSnapshot(master *ChecklistMaster) datatypes.JSONMap {
	activities := make([]string, len(master.Items))
	for i, item := range master.Items {
		activities[i] = item.ActivityName
	}
	return datatypes.JSONMap{
		"name":            master.Name,
		"code":            master.Code,
		"checklistTypeId": master.ChecklistTypeID,
		"itemCount":       len(master.Items),
		"items":           activities,
	}
}
