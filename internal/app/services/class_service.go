package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/app/resource"
)

// ClassService handles class form submissions.
// Capacity is coerced to the default before validation, so a blank seat count never blocks a submit.
type ClassService struct {
	cols   *resource.Collections
	guard  *submissionGuard
	logger zerolog.Logger
}

func (s *ClassService) Get(ctx context.Context, id int64) (models.Class, error) {
	return s.cols.Classes.GetOne(ctx, id)
}

func (s *ClassService) Create(ctx context.Context, req *dto.CreateClassRequest) (models.Class, error) {
	key := formKey(ctx, models.ResourceClasses, "new")
	return submit(ctx, s.guard, key, models.ResourceClasses, req, func() (models.Class, error) {
		return s.cols.Classes.Create(ctx, req)
	})
}

func (s *ClassService) Update(ctx context.Context, id int64, req *dto.UpdateClassRequest) (models.Class, error) {
	key := formKey(ctx, models.ResourceClasses, recordKey(id))
	return submit(ctx, s.guard, key, models.ResourceClasses, req, func() (models.Class, error) {
		return s.cols.Classes.Update(ctx, id, req)
	})
}

// Delete removes a class. Nothing in the console references classes.
func (s *ClassService) Delete(ctx context.Context, id int64) error {
	return s.cols.Classes.Delete(ctx, id)
}
