package models

import "time"

// Subject belongs to exactly one department
type Subject struct {
	ID           int64     `json:"id" validate:"gt=0"`
	Code         string    `json:"code" validate:"required"`
	Name         string    `json:"name" validate:"required"`
	DepartmentID int64     `json:"departmentId" validate:"gt=0"`
	Description  *string   `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Department is set when the backend joins it into the response
	Department *DepartmentSummary `json:"department,omitempty"`
}

// SubjectSummary is the projection attached to classes
type SubjectSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Summary projects s onto its lightweight form
func (s Subject) Summary() SubjectSummary {
	return SubjectSummary{ID: s.ID, Name: s.Name, Code: s.Code}
}
