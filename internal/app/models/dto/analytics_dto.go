package dto

import (
	"time"

	"github.com/yigit/schoolconsole/internal/app/models"
)

// Overview holds the headline totals of the dashboard
type Overview struct {
	TotalUsers       int64 `json:"totalUsers"`
	TotalClasses     int64 `json:"totalClasses"`
	ActiveClasses    int64 `json:"activeClasses"`
	TotalEnrollments int64 `json:"totalEnrollments"`
	TotalDepartments int64 `json:"totalDepartments"`
	TotalSubjects    int64 `json:"totalSubjects"`
}

// EnrollmentTrend is one point of the enrollment time series
type EnrollmentTrend struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ClassesByDepartment counts classes per department
type ClassesByDepartment struct {
	DepartmentID   int64  `json:"departmentId,omitempty"`
	DepartmentName string `json:"departmentName"`
	ClassCount     int64  `json:"classCount"`
}

// CapacityCategories counts classes per utilization bucket
type CapacityCategories struct {
	Available  int64 `json:"available"`
	NearFull   int64 `json:"nearFull"`
	AlmostFull int64 `json:"almostFull"`
	Full       int64 `json:"full"`
}

// Total is the number of classified classes
func (c CapacityCategories) Total() int64 {
	return c.Available + c.NearFull + c.AlmostFull + c.Full
}

// ClassUtilization is the per-class input to capacity bucketing
type ClassUtilization struct {
	ClassID       int64           `json:"classId"`
	ClassName     string          `json:"className,omitempty"`
	EnrolledCount int64           `json:"enrolledCount"`
	Capacity      models.Capacity `json:"capacity"`
}

// CapacityStatus is the capacity endpoint payload.
// Classes, when present, takes precedence over pre-bucketed Categories.
type CapacityStatus struct {
	Categories CapacityCategories `json:"categories"`
	Classes    []ClassUtilization `json:"classes,omitempty"`
}

// UserDistribution counts users per role
type UserDistribution struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

// Activity types of the recent activity feed
const (
	ActivityEnrollment = "enrollment"
	ActivityClass      = "class"
	ActivityUser       = "user"
)

// RecentActivity is one event of the activity feed, unique by (type, id)
type RecentActivity struct {
	Type        string    `json:"type"`
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
