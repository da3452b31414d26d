package models

import "time"

// Department groups subjects under a short mnemonic code
type Department struct {
	ID          int64     `json:"id" validate:"gt=0"`
	Code        string    `json:"code" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DepartmentSummary is the projection attached to records referencing a department
type DepartmentSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Summary projects d onto its lightweight form
func (d Department) Summary() DepartmentSummary {
	return DepartmentSummary{ID: d.ID, Name: d.Name, Code: d.Code}
}
