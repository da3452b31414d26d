package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/app/resource"
)

// DepartmentService handles department form submissions
type DepartmentService struct {
	cols   *resource.Collections
	guard  *submissionGuard
	logger zerolog.Logger
}

// Get retrieves a department by ID
func (s *DepartmentService) Get(ctx context.Context, id int64) (models.Department, error) {
	return s.cols.Departments.GetOne(ctx, id)
}

// Create creates a new department
func (s *DepartmentService) Create(ctx context.Context, req *dto.CreateDepartmentRequest) (models.Department, error) {
	key := formKey(ctx, models.ResourceDepartments, "new")
	return submit(ctx, s.guard, key, models.ResourceDepartments, req, func() (models.Department, error) {
		return s.cols.Departments.Create(ctx, req)
	})
}

// Update applies the changed fields of req to department id
func (s *DepartmentService) Update(ctx context.Context, id int64, req *dto.UpdateDepartmentRequest) (models.Department, error) {
	key := formKey(ctx, models.ResourceDepartments, recordKey(id))
	return submit(ctx, s.guard, key, models.ResourceDepartments, req, func() (models.Department, error) {
		return s.cols.Departments.Update(ctx, id, req)
	})
}

// Delete removes a department that no subject belongs to
func (s *DepartmentService) Delete(ctx context.Context, id int64) error {
	if err := refuseWithDependents(ctx, s.cols.Subjects, models.ResourceDepartments, models.ResourceSubjects, "departmentId", id); err != nil {
		s.logger.Info().Err(err).Int64("id", id).Msg("Department delete refused")
		return err
	}
	return s.cols.Departments.Delete(ctx, id)
}
