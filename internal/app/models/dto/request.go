package dto

import "github.com/yigit/schoolconsole/internal/app/models"

// CreateDepartmentRequest represents department creation data
type CreateDepartmentRequest struct {
	Code        string  `json:"code" validate:"required,min=2,max=16"`
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description *string `json:"description,omitempty"`
}

// UpdateDepartmentRequest carries only the fields being changed
type UpdateDepartmentRequest struct {
	Code        *string `json:"code,omitempty" validate:"omitempty,min=2,max=16"`
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description,omitempty"`
}

// CreateSubjectRequest represents subject creation data
type CreateSubjectRequest struct {
	Code         string  `json:"code" validate:"required,min=2,max=16"`
	Name         string  `json:"name" validate:"required,min=2,max=100"`
	DepartmentID int64   `json:"departmentId" validate:"gt=0"`
	Description  *string `json:"description,omitempty"`
}

// UpdateSubjectRequest carries only the fields being changed
type UpdateSubjectRequest struct {
	Code         *string `json:"code,omitempty" validate:"omitempty,min=2,max=16"`
	Name         *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	DepartmentID *int64  `json:"departmentId,omitempty" validate:"omitempty,gt=0"`
	Description  *string `json:"description,omitempty"`
}

// CreateClassRequest represents class creation data
type CreateClassRequest struct {
	Name        string             `json:"name" validate:"required,min=2,max=100"`
	SubjectID   int64              `json:"subjectId" validate:"gt=0"`
	TeacherID   int64              `json:"teacherId" validate:"gt=0"`
	Capacity    models.Capacity    `json:"capacity" validate:"gt=0"`
	Status      models.ClassStatus `json:"status" validate:"required,oneof=active inactive"`
	BannerURL   *string            `json:"bannerUrl,omitempty" validate:"omitempty,url"`
	Description *string            `json:"description,omitempty"`
}

// Normalize applies the capacity default before validation.
// A non-numeric or blank capacity has already decoded to zero.
func (r *CreateClassRequest) Normalize() {
	r.Capacity = models.Capacity(models.CoerceCapacity(int(r.Capacity)))
	if r.Status == "" {
		r.Status = models.ClassStatusActive
	}
}

// UpdateClassRequest carries only the fields being changed
type UpdateClassRequest struct {
	Name        *string             `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	SubjectID   *int64              `json:"subjectId,omitempty" validate:"omitempty,gt=0"`
	TeacherID   *int64              `json:"teacherId,omitempty" validate:"omitempty,gt=0"`
	Capacity    *models.Capacity    `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	Status      *models.ClassStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	BannerURL   *string             `json:"bannerUrl,omitempty" validate:"omitempty,url"`
	Description *string             `json:"description,omitempty"`
}

// Normalize applies the capacity default to a capacity that is present
func (r *UpdateClassRequest) Normalize() {
	if r.Capacity != nil {
		c := models.Capacity(models.CoerceCapacity(int(*r.Capacity)))
		r.Capacity = &c
	}
}

// CreateUserRequest represents user creation data
type CreateUserRequest struct {
	Name          string      `json:"name" validate:"required,min=2,max=100"`
	Email         string      `json:"email" validate:"required,emailaddr"`
	Role          models.Role `json:"role" validate:"required,oneof=admin teacher student"`
	Image         *string     `json:"image,omitempty" validate:"omitempty,url"`
	EmailVerified bool        `json:"emailVerified"`
}

// UpdateUserRequest carries only the fields being changed
type UpdateUserRequest struct {
	Name          *string      `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email         *string      `json:"email,omitempty" validate:"omitempty,emailaddr"`
	Role          *models.Role `json:"role,omitempty" validate:"omitempty,oneof=admin teacher student"`
	Image         *string      `json:"image,omitempty" validate:"omitempty,url"`
	EmailVerified *bool        `json:"emailVerified,omitempty"`
}
