package resolver

import (
	"context"

	"github.com/yigit/schoolconsole/internal/app/models"
)

// Ref is a resolved foreign key. Resolved is false for the placeholder.
type Ref struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
	Resolved bool   `json:"resolved"`
}

// Unresolved is the placeholder for a key that did not resolve
func Unresolved(id int64) Ref {
	return Ref{ID: id, Name: UnresolvedName}
}

// ClassView is a class with its subject and teacher attached
type ClassView struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	SubjectID   int64              `json:"subjectId"`
	TeacherID   int64              `json:"teacherId"`
	Capacity    int                `json:"capacity"`
	Status      models.ClassStatus `json:"status"`
	BannerURL   *string            `json:"bannerUrl,omitempty"`
	Description *string            `json:"description,omitempty"`
	Subject     Ref                `json:"subject"`
	Teacher     Ref                `json:"teacher"`
}

// SubjectView is a subject with its department attached
type SubjectView struct {
	models.Subject
	Department Ref `json:"department"`
}

// ResolveClasses attaches subject and teacher projections to every class.
// It never fails: keys that do not resolve get the Unresolved placeholder.
func (r *Resolver) ResolveClasses(ctx context.Context, classes []models.Class) []ClassView {
	if r.mode == ModeClient && needsClassLookups(classes) {
		// failures are logged by Load and surface as placeholders
		_ = r.Load(ctx, LookupSubjects, LookupTeachers)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	views := make([]ClassView, 0, len(classes))
	for _, c := range classes {
		c.Normalize()
		v := ClassView{
			ID:          c.ID,
			Name:        c.Name,
			SubjectID:   c.SubjectID,
			TeacherID:   c.TeacherID,
			Capacity:    int(c.Capacity),
			Status:      c.Status,
			BannerURL:   c.BannerURL,
			Description: c.Description,
			Subject:     r.subjectRef(c),
			Teacher:     r.teacherRef(c),
		}
		views = append(views, v)
	}
	return views
}

// ResolveClass resolves a single class for a show view
func (r *Resolver) ResolveClass(ctx context.Context, c models.Class) ClassView {
	return r.ResolveClasses(ctx, []models.Class{c})[0]
}

// ResolveSubjects attaches department projections to every subject
func (r *Resolver) ResolveSubjects(ctx context.Context, subjects []models.Subject) []SubjectView {
	if r.mode == ModeClient {
		for _, s := range subjects {
			if s.Department == nil {
				_ = r.Load(ctx, LookupDepartments)
				break
			}
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	views := make([]SubjectView, 0, len(subjects))
	for _, s := range subjects {
		ref := Unresolved(s.DepartmentID)
		switch {
		case s.Department != nil && s.Department.ID == s.DepartmentID:
			ref = Ref{ID: s.Department.ID, Name: s.Department.Name, Code: s.Department.Code, Resolved: true}
		case r.mode == ModeClient:
			if d, ok := r.departments[s.DepartmentID]; ok {
				ref = Ref{ID: d.ID, Name: d.Name, Code: d.Code, Resolved: true}
			}
		}
		s.Department = nil
		views = append(views, SubjectView{Subject: s, Department: ref})
	}
	return views
}

// needsClassLookups reports whether any class lacks an embedded summary
func needsClassLookups(classes []models.Class) bool {
	for _, c := range classes {
		if c.Subject == nil || c.Teacher == nil {
			return true
		}
	}
	return false
}

// subjectRef prefers an embedded summary, then the lookup. Caller holds mu.
func (r *Resolver) subjectRef(c models.Class) Ref {
	if c.Subject != nil && c.Subject.ID == c.SubjectID {
		return Ref{ID: c.Subject.ID, Name: c.Subject.Name, Code: c.Subject.Code, Resolved: true}
	}
	if r.mode == ModeClient {
		if s, ok := r.subjects[c.SubjectID]; ok {
			return Ref{ID: s.ID, Name: s.Name, Code: s.Code, Resolved: true}
		}
	}
	return Unresolved(c.SubjectID)
}

// teacherRef prefers an embedded summary, then the lookup. Caller holds mu.
func (r *Resolver) teacherRef(c models.Class) Ref {
	if c.Teacher != nil && c.Teacher.ID == c.TeacherID {
		return Ref{ID: c.Teacher.ID, Name: c.Teacher.Name, Resolved: true}
	}
	if r.mode == ModeClient {
		if u, ok := r.teachers[c.TeacherID]; ok {
			return Ref{ID: u.ID, Name: u.Name, Resolved: true}
		}
	}
	return Unresolved(c.TeacherID)
}
