package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/app/resource"
)

// SubjectService handles subject form submissions
type SubjectService struct {
	cols   *resource.Collections
	guard  *submissionGuard
	logger zerolog.Logger
}

// Get retrieves a subject by ID
func (s *SubjectService) Get(ctx context.Context, id int64) (models.Subject, error) {
	return s.cols.Subjects.GetOne(ctx, id)
}

// Create creates a new subject
func (s *SubjectService) Create(ctx context.Context, req *dto.CreateSubjectRequest) (models.Subject, error) {
	key := formKey(ctx, models.ResourceSubjects, "new")
	return submit(ctx, s.guard, key, models.ResourceSubjects, req, func() (models.Subject, error) {
		return s.cols.Subjects.Create(ctx, req)
	})
}

// Update applies the changed fields of req to subject id
func (s *SubjectService) Update(ctx context.Context, id int64, req *dto.UpdateSubjectRequest) (models.Subject, error) {
	key := formKey(ctx, models.ResourceSubjects, recordKey(id))
	return submit(ctx, s.guard, key, models.ResourceSubjects, req, func() (models.Subject, error) {
		return s.cols.Subjects.Update(ctx, id, req)
	})
}

// Delete removes a subject no class is taught in
func (s *SubjectService) Delete(ctx context.Context, id int64) error {
	if err := refuseWithDependents(ctx, s.cols.Classes, models.ResourceSubjects, models.ResourceClasses, "subjectId", id); err != nil {
		s.logger.Info().Err(err).Int64("id", id).Msg("Subject delete refused")
		return err
	}
	return s.cols.Subjects.Delete(ctx, id)
}
