package repositories

import (
	"context"

	. "checklist/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChecklistUserRepository stores the local copy of directory identities.
type ChecklistUserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id int) (*User, error)
	GetByEmployeeID(ctx context.Context, tx *gorm.DB, employeeID string) (*User, error)
	Upsert(ctx context.Context, tx *gorm.DB, user *User) (*User, error)
	FirstOrCreate(ctx context.Context, tx *gorm.DB, user *User) (*User, error)
}

type userRepository struct {
	log logger.Logger
}

func NewUserRepository() ChecklistUserRepository {
	return &userRepository{
		log: logger.New("userRepository"),
	}
}

func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, id int) (*User, error) {
	log := r.log.Function("GetByID")

	user, err := gorm.G[User](tx).Where("id = ?", id).First(ctx)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, log.Err("failed to get user by id", err, "id", id)
	}

	return &user, nil
}

func (r *userRepository) GetByEmployeeID(
	ctx context.Context,
	tx *gorm.DB,
	employeeID string,
) (*User, error) {
	log := r.log.Function("GetByEmployeeID")

	user, err := gorm.G[User](tx).Where("employee_id = ?", employeeID).First(ctx)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, log.Err("failed to get user by employee id", err, "employeeID", employeeID)
	}

	return &user, nil
}

// Upsert inserts the user or refreshes name and email of the existing row with
// the same employee id.
func (r *userRepository) Upsert(ctx context.Context, tx *gorm.DB, user *User) (*User, error) {
	log := r.log.Function("Upsert")

	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "is_placeholder", "updated_at"}),
		}).
		Create(user).Error
	if err != nil {
		return nil, log.Err("failed to upsert user", err, "employeeID", user.EmployeeID)
	}

	return r.GetByEmployeeID(ctx, tx, user.EmployeeID)
}

// FirstOrCreate returns the row for user.EmployeeID, inserting user when none
// exists. An existing row is never overwritten.
func (r *userRepository) FirstOrCreate(
	ctx context.Context,
	tx *gorm.DB,
	user *User,
) (*User, error) {
	log := r.log.Function("FirstOrCreate")

	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}},
			DoNothing: true,
		}).
		Create(user).Error
	if err != nil {
		return nil, log.Err("failed to create user", err, "employeeID", user.EmployeeID)
	}

	return r.GetByEmployeeID(ctx, tx, user.EmployeeID)
}
