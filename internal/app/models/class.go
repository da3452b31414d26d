package models

import (
	"math"
	"strconv"
	"strings"
)

// DefaultCapacity applies when a class has no usable capacity
const DefaultCapacity = 50

// Capacity is a seat count that tolerates loosely typed input.
// Numbers, numeric strings and null all decode; anything unusable decodes to zero.
type Capacity int

// UnmarshalJSON implements json.Unmarshaler
func (c *Capacity) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 1 || f > math.MaxInt32 {
		*c = 0
		return nil
	}
	*c = Capacity(int(f))
	return nil
}

// CoerceCapacity returns v when it is a positive seat count, DefaultCapacity otherwise
func CoerceCapacity(v int) int {
	if v <= 0 {
		return DefaultCapacity
	}
	return v
}

// Class is a teaching group for one subject led by one teacher
type Class struct {
	ID          int64       `json:"id" validate:"gt=0"`
	Name        string      `json:"name" validate:"required"`
	SubjectID   int64       `json:"subjectId" validate:"gt=0"`
	TeacherID   int64       `json:"teacherId" validate:"gt=0"`
	Capacity    Capacity    `json:"capacity" validate:"gt=0"`
	Status      ClassStatus `json:"status" validate:"required,oneof=active inactive"`
	BannerURL   *string     `json:"bannerUrl,omitempty"`
	Description *string     `json:"description,omitempty"`

	// Set when the backend joins related records into the response
	Subject *SubjectSummary `json:"subject,omitempty"`
	Teacher *UserSummary    `json:"teacher,omitempty"`
}

// Normalize applies the capacity default
func (c *Class) Normalize() {
	c.Capacity = Capacity(CoerceCapacity(int(c.Capacity)))
}
