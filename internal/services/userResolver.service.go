package services

import (
	"context"
	"errors"
	"time"

	"checklist/internal/models"
	"checklist/internal/repositories"
	"checklist/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

var errNoIdentityProvider = errors.New("identity provider is not configured")

// UserResolver turns an employee id into a persisted local user. Directory
// failures never surface to callers: the local row or a placeholder is used
// instead.
type UserResolver struct {
	provider IdentityProvider
	userRepo repositories.ChecklistUserRepository
	timeout  time.Duration
	log      logger.Logger
}

func NewUserResolver(
	provider IdentityProvider,
	userRepo repositories.ChecklistUserRepository,
	timeout time.Duration,
) *UserResolver {
	return &UserResolver{
		provider: provider,
		userRepo: userRepo,
		timeout:  timeout,
		log:      logger.New("UserResolver"),
	}
}

// Resolve must be called outside any transaction; db is the base connection.
func (r *UserResolver) Resolve(ctx context.Context, db *gorm.DB, employeeID string) (*models.User, error) {
	log := r.log.TraceFromContext(ctx).Function("Resolve")

	employeeID = utils.CleanEmployeeID(employeeID)
	if employeeID == "" {
		return nil, ValidationError("employee id is required")
	}

	record, err := r.lookup(ctx, employeeID)
	if err == nil {
		user, upsertErr := r.userRepo.Upsert(ctx, db, &models.User{
			EmployeeID: employeeID,
			Name:       record.Name,
			Email:      record.Email,
		})
		if upsertErr == nil {
			return user, nil
		}
		log.Warn("failed to store directory identity, using local fallback", "employeeID", employeeID, "error", upsertErr)
	} else {
		log.Warn("identity lookup failed, using local fallback", "employeeID", employeeID, "error", err)
	}

	user, err := r.userRepo.GetByEmployeeID(ctx, db, employeeID)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFound(err) {
		log.Warn("local identity lookup failed", "employeeID", employeeID, "error", err)
	}

	user, err = r.userRepo.FirstOrCreate(ctx, db, models.NewPlaceholderUser(employeeID))
	if err != nil {
		return nil, log.Err("failed to create placeholder user", err, "employeeID", employeeID)
	}

	return user, nil
}

// lookup bounds the provider call by the resolver timeout even when the
// provider ignores ctx.
func (r *UserResolver) lookup(ctx context.Context, employeeID string) (EmployeeRecord, error) {
	if r.provider == nil {
		return EmployeeRecord{}, errNoIdentityProvider
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type result struct {
		record EmployeeRecord
		err    error
	}
	done := make(chan result, 1)
	go func() {
		record, err := r.provider.Lookup(ctx, employeeID)
		done <- result{record: record, err: err}
	}()

	select {
	case res := <-done:
		return res.record, res.err
	case <-ctx.Done():
		return EmployeeRecord{}, ctx.Err()
	}
}

// ForLogging picks the actor for an audit entry: the local user for
// employeeID, then the fallback user id, then the system user. It never calls
// the directory and never fails.
func (r *UserResolver) ForLogging(
	ctx context.Context,
	db *gorm.DB,
	employeeID string,
	fallbackUserID *int,
) *models.User {
	log := r.log.TraceFromContext(ctx).Function("ForLogging")

	if employeeID = utils.CleanEmployeeID(employeeID); employeeID != "" {
		user, err := r.userRepo.GetByEmployeeID(ctx, db, employeeID)
		if err == nil {
			return user
		}
		if !repositories.IsNotFound(err) {
			log.Warn("failed to load actor", "employeeID", employeeID, "error", err)
		}
	}

	if fallbackUserID != nil {
		user, err := r.userRepo.GetByID(ctx, db, *fallbackUserID)
		if err == nil {
			return user
		}
		if !repositories.IsNotFound(err) {
			log.Warn("failed to load fallback actor", "userID", *fallbackUserID, "error", err)
		}
	}

	return models.SystemUser()
}
