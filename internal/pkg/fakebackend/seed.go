package fakebackend

import (
	"time"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
)

// Seeded holds the records created by Seed, for assertions
type Seeded struct {
	Departments []models.Department
	Subjects    []models.Subject
	Teachers    []models.User
	Students    []models.User
	Classes     []models.Class
}

func strPtr(s string) *string { return &s }

// Seed fills b with a small, consistent school
func Seed(b *Backend) Seeded {
	var s Seeded

	for _, d := range []models.Department{
		{Code: "CSE", Name: "Computer Science & Engineering"},
		{Code: "BIO", Name: "Biological Sciences"},
		{Code: "ECON", Name: "Economics"},
	} {
		s.Departments = append(s.Departments, b.AddDepartment(d))
	}

	for _, subj := range []models.Subject{
		{Code: "CS101", Name: "Introduction to Computer Science", DepartmentID: s.Departments[0].ID,
			Description: strPtr("Fundamental concepts of computation and programming.")},
		{Code: "BIO204", Name: "Genetics and Heredity", DepartmentID: s.Departments[1].ID,
			Description: strPtr("Mechanisms of inheritance and gene expression.")},
		{Code: "ECON310", Name: "Macroeconomic Theory", DepartmentID: s.Departments[2].ID},
	} {
		s.Subjects = append(s.Subjects, b.AddSubject(subj))
	}

	for _, u := range []models.User{
		{Name: "Ada Lovelace", Email: "ada@school.edu", Role: models.RoleTeacher, EmailVerified: true},
		{Name: "Gregor Mendel", Email: "gregor@school.edu", Role: models.RoleTeacher, EmailVerified: true},
		{Name: "John Keynes", Email: "john@school.edu", Role: models.RoleTeacher},
	} {
		s.Teachers = append(s.Teachers, b.AddUser(u))
	}
	for _, u := range []models.User{
		{Name: "Sam Student", Email: "sam@school.edu", Role: models.RoleStudent},
		{Name: "Alex Admin", Email: "alex@school.edu", Role: models.RoleAdmin, EmailVerified: true},
	} {
		s.Students = append(s.Students, b.AddUser(u))
	}

	classes := []struct {
		class    models.Class
		enrolled int64
	}{
		{models.Class{Name: "CS101 Morning", SubjectID: s.Subjects[0].ID, TeacherID: s.Teachers[0].ID, Capacity: 30, Status: models.ClassStatusActive}, 12},
		{models.Class{Name: "CS101 Evening", SubjectID: s.Subjects[0].ID, TeacherID: s.Teachers[0].ID, Capacity: 20, Status: models.ClassStatusActive}, 15},
		{models.Class{Name: "Genetics Lab", SubjectID: s.Subjects[1].ID, TeacherID: s.Teachers[1].ID, Capacity: 10, Status: models.ClassStatusActive}, 9},
		{models.Class{Name: "Macro Seminar", SubjectID: s.Subjects[2].ID, TeacherID: s.Teachers[2].ID, Capacity: 25, Status: models.ClassStatusInactive}, 25},
	}
	for _, c := range classes {
		s.Classes = append(s.Classes, b.AddClass(c.class, c.enrolled))
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.SetEnrollmentTrends([]dto.EnrollmentTrend{
		{Date: "2026-01", Count: 14},
		{Date: "2026-02", Count: 22},
		{Date: "2026-03", Count: 25},
	})
	b.SetRecentActivity([]dto.RecentActivity{
		{Type: dto.ActivityUser, ID: s.Students[0].ID, Description: "Sam Student joined", CreatedAt: base.Add(1 * time.Hour)},
		{Type: dto.ActivityClass, ID: s.Classes[3].ID, Description: "Macro Seminar created", CreatedAt: base.Add(3 * time.Hour)},
		{Type: dto.ActivityEnrollment, ID: 1, Description: "Sam Student enrolled in CS101 Morning", CreatedAt: base.Add(2 * time.Hour)},
	})

	return s
}
