package checklistTypeController

import (
	"context"
	"strings"

	. "checklist/internal/models"
	"checklist/internal/repositories"
	"checklist/internal/services"
	"checklist/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

type CreateChecklistTypeRequest struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

type ChecklistTypeController struct {
	typeRepo repositories.ChecklistTypeRepository
	tx       services.Transactor
	log      logger.Logger
}

type ChecklistTypeControllerInterface interface {
	List(ctx context.Context) ([]ChecklistType, error)
	Create(ctx context.Context, request *CreateChecklistTypeRequest) (*ChecklistType, error)
	Delete(ctx context.Context, id int) error
}

func New(repos repositories.Repository, services services.Service) ChecklistTypeControllerInterface {
	return &ChecklistTypeController{
		typeRepo: repos.ChecklistType,
		tx:       services.Transaction,
		log:      logger.New("checklistTypeController"),
	}
}

func (c *ChecklistTypeController) List(ctx context.Context) ([]ChecklistType, error) {
	return c.typeRepo.List(ctx, c.tx.DB(ctx))
}

func (c *ChecklistTypeController) Create(
	ctx context.Context,
	request *CreateChecklistTypeRequest,
) (*ChecklistType, error) {
	log := c.log.TraceFromContext(ctx).Function("Create")

	if err := utils.ValidateStruct(request); err != nil {
		return nil, services.ValidationError("%s", err)
	}
	name := strings.TrimSpace(request.Name)

	checklistType := &ChecklistType{Name: name}
	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		existing, err := c.typeRepo.List(ctx, tx)
		if err != nil {
			return err
		}
		for _, t := range existing {
			if strings.EqualFold(t.Name, name) {
				return services.ValidationError("checklist type %q already exists", name)
			}
		}
		return c.typeRepo.Create(ctx, tx, checklistType)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Checklist type created", "id", checklistType.ID, "name", name)
	return checklistType, nil
}

// Delete removes a type permanently. Types still referenced by a master,
// deleted or not, are refused.
func (c *ChecklistTypeController) Delete(ctx context.Context, id int) error {
	log := c.log.TraceFromContext(ctx).Function("Delete")

	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		checklistType, err := c.typeRepo.GetByID(ctx, tx, id)
		if err != nil {
			if repositories.IsNotFound(err) {
				return services.NotFoundError("checklist type %d not found", id)
			}
			return err
		}

		count, err := c.typeRepo.CountMasters(ctx, tx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return services.ValidationError(
				"checklist type %q is used by %d checklist masters",
				checklistType.Name,
				count,
			)
		}

		return c.typeRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	log.Info("Checklist type deleted", "id", id)
	return nil
}
