package models

import "time"

// User is a console account; teachers are referenced by classes
type User struct {
	ID            int64     `json:"id" validate:"gt=0"`
	Name          string    `json:"name" validate:"required"`
	Email         string    `json:"email" validate:"required,emailaddr"`
	Role          Role      `json:"role" validate:"required,oneof=admin teacher student"`
	Image         *string   `json:"image,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// UserSummary is the projection attached to classes as their teacher
type UserSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Summary projects u onto its lightweight form
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name}
}
