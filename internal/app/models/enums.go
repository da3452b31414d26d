package models

// Role is the role of a console user
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the enumerated roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// ClassStatus is the lifecycle status of a class
type ClassStatus string

const (
	ClassStatusActive   ClassStatus = "active"
	ClassStatusInactive ClassStatus = "inactive"
)

// Valid reports whether s is one of the enumerated statuses
func (s ClassStatus) Valid() bool {
	return s == ClassStatusActive || s == ClassStatusInactive
}

// Resource names of the backend collections
const (
	ResourceDepartments = "departments"
	ResourceSubjects    = "subjects"
	ResourceClasses     = "classes"
	ResourceUsers       = "users"
)

// Resources lists every backend collection known to the console
var Resources = []string{ResourceDepartments, ResourceSubjects, ResourceClasses, ResourceUsers}
