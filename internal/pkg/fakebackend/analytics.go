package fakebackend

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
)

// SetEnrollmentTrends replaces the enrollment time series
func (b *Backend) SetEnrollmentTrends(points []dto.EnrollmentTrend) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trends = append([]dto.EnrollmentTrend(nil), points...)
}

// SetRecentActivity replaces the activity feed, served in the given order
func (b *Backend) SetRecentActivity(events []dto.RecentActivity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activity = append([]dto.RecentActivity(nil), events...)
}

func (b *Backend) overview(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := dto.Overview{
		TotalUsers:       int64(len(b.users)),
		TotalClasses:     int64(len(b.classes)),
		TotalDepartments: int64(len(b.departments)),
		TotalSubjects:    int64(len(b.subjects)),
	}
	for _, cl := range b.classes {
		if cl.Status == models.ClassStatusActive {
			out.ActiveClasses++
		}
	}
	for _, n := range b.enrolled {
		out.TotalEnrollments += n
	}
	c.JSON(http.StatusOK, dto.DataResponse[dto.Overview]{Data: out})
}

func (b *Backend) enrollmentTrends(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, dto.DataResponse[[]dto.EnrollmentTrend]{Data: b.trends})
}

func (b *Backend) classesByDepartment(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := make(map[int64]int64)
	for _, cl := range b.classes {
		if s, ok := b.subjects[cl.SubjectID]; ok {
			counts[s.DepartmentID]++
		}
	}
	out := make([]dto.ClassesByDepartment, 0, len(counts))
	for deptID, n := range counts {
		out = append(out, dto.ClassesByDepartment{
			DepartmentID:   deptID,
			DepartmentName: b.departments[deptID].Name,
			ClassCount:     n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartmentID < out[j].DepartmentID })
	c.JSON(http.StatusOK, dto.DataResponse[[]dto.ClassesByDepartment]{Data: out})
}

// capacityStatus reports raw per-class utilization; bucketing is the console's job
func (b *Backend) capacityStatus(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := dto.CapacityStatus{}
	for _, cl := range b.classes {
		out.Classes = append(out.Classes, dto.ClassUtilization{
			ClassID:       cl.ID,
			ClassName:     cl.Name,
			EnrolledCount: b.enrolled[cl.ID],
			Capacity:      cl.Capacity,
		})
	}
	sort.Slice(out.Classes, func(i, j int) bool { return out.Classes[i].ClassID < out.Classes[j].ClassID })
	c.JSON(http.StatusOK, dto.DataResponse[dto.CapacityStatus]{Data: out})
}

func (b *Backend) userDistribution(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := make(map[models.Role]int64)
	for _, u := range b.users {
		counts[u.Role]++
	}
	out := make([]dto.UserDistribution, 0, len(counts))
	for _, role := range []models.Role{models.RoleAdmin, models.RoleTeacher, models.RoleStudent} {
		if n := counts[role]; n > 0 {
			out = append(out, dto.UserDistribution{Role: string(role), Count: n})
		}
	}
	c.JSON(http.StatusOK, dto.DataResponse[[]dto.UserDistribution]{Data: out})
}

func (b *Backend) recentActivity(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, dto.DataResponse[[]dto.RecentActivity]{Data: b.activity})
}
