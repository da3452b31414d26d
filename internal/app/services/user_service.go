package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/app/resource"
)

// UserService handles user form submissions
type UserService struct {
	cols   *resource.Collections
	guard  *submissionGuard
	logger zerolog.Logger
}

// Get retrieves a user by ID
func (s *UserService) Get(ctx context.Context, id int64) (models.User, error) {
	return s.cols.Users.GetOne(ctx, id)
}

// Create creates a new user
func (s *UserService) Create(ctx context.Context, req *dto.CreateUserRequest) (models.User, error) {
	key := formKey(ctx, models.ResourceUsers, "new")
	return submit(ctx, s.guard, key, models.ResourceUsers, req, func() (models.User, error) {
		return s.cols.Users.Create(ctx, req)
	})
}

// Update applies the changed fields of req to user id
func (s *UserService) Update(ctx context.Context, id int64, req *dto.UpdateUserRequest) (models.User, error) {
	key := formKey(ctx, models.ResourceUsers, recordKey(id))
	return submit(ctx, s.guard, key, models.ResourceUsers, req, func() (models.User, error) {
		return s.cols.Users.Update(ctx, id, req)
	})
}

// Delete removes a user who teaches no class
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := refuseWithDependents(ctx, s.cols.Classes, models.ResourceUsers, models.ResourceClasses, "teacherId", id); err != nil {
		s.logger.Info().Err(err).Int64("id", id).Msg("User delete refused")
		return err
	}
	return s.cols.Users.Delete(ctx, id)
}
