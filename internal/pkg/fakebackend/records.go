package fakebackend

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/app/query"
	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
	"github.com/yigit/schoolconsole/internal/pkg/helpers"
	"github.com/yigit/schoolconsole/internal/pkg/validation"
)

// AddDepartment stores d with a fresh id and timestamps
func (b *Backend) AddDepartment(d models.Department) models.Department {
	b.mu.Lock()
	defer b.mu.Unlock()
	d.ID = b.nextID(models.ResourceDepartments)
	d.CreatedAt, d.UpdatedAt = b.opts.Now(), b.opts.Now()
	b.departments[d.ID] = d
	return d
}

// AddSubject stores s with a fresh id and timestamps
func (b *Backend) AddSubject(s models.Subject) models.Subject {
	b.mu.Lock()
	defer b.mu.Unlock()
	s.ID = b.nextID(models.ResourceSubjects)
	s.CreatedAt, s.UpdatedAt = b.opts.Now(), b.opts.Now()
	s.Department = nil
	b.subjects[s.ID] = s
	return s
}

// AddClass stores c with a fresh id; enrolled feeds capacity analytics
func (b *Backend) AddClass(c models.Class, enrolled int64) models.Class {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.ID = b.nextID(models.ResourceClasses)
	c.Subject, c.Teacher = nil, nil
	b.classes[c.ID] = c
	b.enrolled[c.ID] = enrolled
	return c
}

// AddUser stores u with a fresh id and timestamps
func (b *Backend) AddUser(u models.User) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	u.ID = b.nextID(models.ResourceUsers)
	u.CreatedAt, u.UpdatedAt = b.opts.Now(), b.opts.Now()
	b.users[u.ID] = u
	return u
}

// rows returns every record of resource in filterable form. Caller holds mu.
func (b *Backend) rows(resource string) []row {
	var out []row
	switch resource {
	case models.ResourceDepartments:
		for _, d := range b.departments {
			out = append(out, row{id: d.ID, record: d, fields: map[string][]string{
				"code":      {d.Code},
				"name":      {d.Name},
				"search":    {d.Name, d.Code},
				"createdAt": {d.CreatedAt.Format("2006-01-02T15:04:05Z07:00")},
			}})
		}
	case models.ResourceSubjects:
		for _, s := range b.subjects {
			dept := b.departments[s.DepartmentID]
			out = append(out, row{id: s.ID, record: b.joinSubject(s), fields: map[string][]string{
				"code":         {s.Code},
				"name":         {s.Name},
				"departmentId": {strconv.FormatInt(s.DepartmentID, 10)},
				"department":   {dept.Name},
				"search":       {s.Name, s.Code},
				"createdAt":    {s.CreatedAt.Format("2006-01-02T15:04:05Z07:00")},
			}})
		}
	case models.ResourceClasses:
		for _, c := range b.classes {
			out = append(out, row{id: c.ID, record: b.joinClass(c), fields: map[string][]string{
				"name":      {c.Name},
				"status":    {string(c.Status)},
				"capacity":  {strconv.Itoa(int(c.Capacity))},
				"subjectId": {strconv.FormatInt(c.SubjectID, 10)},
				"teacherId": {strconv.FormatInt(c.TeacherID, 10)},
				"subject":   {b.subjects[c.SubjectID].Name},
				"teacher":   {b.users[c.TeacherID].Name},
				"search":    {c.Name},
			}})
		}
	case models.ResourceUsers:
		for _, u := range b.users {
			out = append(out, row{id: u.ID, record: u, fields: map[string][]string{
				"name":      {u.Name},
				"email":     {u.Email},
				"role":      {string(u.Role)},
				"search":    {u.Name, u.Email},
				"createdAt": {u.CreatedAt.Format("2006-01-02T15:04:05Z07:00")},
			}})
		}
	}
	return out
}

func (b *Backend) joinSubject(s models.Subject) models.Subject {
	if b.opts.EmbedRelations {
		if d, ok := b.departments[s.DepartmentID]; ok {
			sum := d.Summary()
			s.Department = &sum
		}
	}
	return s
}

func (b *Backend) joinClass(c models.Class) models.Class {
	if b.opts.EmbedRelations {
		if s, ok := b.subjects[c.SubjectID]; ok {
			sum := s.Summary()
			c.Subject = &sum
		}
		if u, ok := b.users[c.TeacherID]; ok {
			sum := u.Summary()
			c.Teacher = &sum
		}
	}
	return c
}

func (b *Backend) list(c *gin.Context, resource string) {
	filters, sortSpec, page, size := parseListQuery(c)

	b.mu.Lock()
	all := b.rows(resource)
	b.mu.Unlock()

	matched := make([]row, 0, len(all))
	for _, r := range all {
		if query.MatchAll(filters, r.lookup) {
			matched = append(matched, r)
		}
	}
	sortRows(matched, sortSpec)

	start, end := helpers.CalculateSliceIndices(page, size, len(matched))
	data := make([]interface{}, 0, end-start)
	for _, r := range matched[start:end] {
		data = append(data, r.record)
	}
	total := int64(len(matched))
	info := helpers.NewPaginationInfo(total, page, size)
	c.JSON(http.StatusOK, dto.ListResponse[interface{}]{Data: data, Total: total, Pagination: &info})
}

func (b *Backend) getOne(c *gin.Context, resource string) {
	id, ok := parseID(c)
	if !ok {
		notFound(c, resource)
		return
	}

	b.mu.Lock()
	rec, found := b.record(resource, id)
	b.mu.Unlock()

	if !found {
		notFound(c, resource)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse[interface{}]{Data: rec})
}

// record returns one joined record. Caller holds mu.
func (b *Backend) record(resource string, id int64) (interface{}, bool) {
	switch resource {
	case models.ResourceDepartments:
		d, ok := b.departments[id]
		return d, ok
	case models.ResourceSubjects:
		s, ok := b.subjects[id]
		return b.joinSubject(s), ok
	case models.ResourceClasses:
		cl, ok := b.classes[id]
		return b.joinClass(cl), ok
	case models.ResourceUsers:
		u, ok := b.users[id]
		return u, ok
	}
	return nil, false
}

func (b *Backend) create(c *gin.Context, resource string) {
	var (
		payload interface{}
		apply   func() interface{}
	)

	switch resource {
	case models.ResourceDepartments:
		var req dto.CreateDepartmentRequest
		payload = &req
		apply = func() interface{} {
			d := models.Department{Code: req.Code, Name: req.Name, Description: req.Description}
			d.ID = b.nextID(resource)
			d.CreatedAt, d.UpdatedAt = b.opts.Now(), b.opts.Now()
			b.departments[d.ID] = d
			return d
		}
	case models.ResourceSubjects:
		var req dto.CreateSubjectRequest
		payload = &req
		apply = func() interface{} {
			s := models.Subject{Code: req.Code, Name: req.Name, DepartmentID: req.DepartmentID, Description: req.Description}
			s.ID = b.nextID(resource)
			s.CreatedAt, s.UpdatedAt = b.opts.Now(), b.opts.Now()
			b.subjects[s.ID] = s
			return b.joinSubject(s)
		}
	case models.ResourceClasses:
		var req dto.CreateClassRequest
		payload = &req
		apply = func() interface{} {
			cl := models.Class{
				Name: req.Name, SubjectID: req.SubjectID, TeacherID: req.TeacherID,
				Capacity: req.Capacity, Status: req.Status,
				BannerURL: req.BannerURL, Description: req.Description,
			}
			cl.ID = b.nextID(resource)
			b.classes[cl.ID] = cl
			return b.joinClass(cl)
		}
	case models.ResourceUsers:
		var req dto.CreateUserRequest
		payload = &req
		apply = func() interface{} {
			u := models.User{Name: req.Name, Email: req.Email, Role: req.Role, Image: req.Image, EmailVerified: req.EmailVerified}
			u.ID = b.nextID(resource)
			u.CreatedAt, u.UpdatedAt = b.opts.Now(), b.opts.Now()
			b.users[u.ID] = u
			return u
		}
	}

	if err := c.ShouldBindJSON(payload); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}
	if err := validation.Struct(resource, payload); err != nil {
		validationFailed(c, apperrors.FieldErrors(err))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if fields := b.checkReferences(resource, payload, 0); len(fields) > 0 {
		validationFailed(c, fields)
		return
	}
	c.JSON(http.StatusCreated, dto.DataResponse[interface{}]{Data: apply()})
}

func (b *Backend) update(c *gin.Context, resource string) {
	id, ok := parseID(c)
	if !ok {
		notFound(c, resource)
		return
	}

	var payload interface{}
	switch resource {
	case models.ResourceDepartments:
		payload = &dto.UpdateDepartmentRequest{}
	case models.ResourceSubjects:
		payload = &dto.UpdateSubjectRequest{}
	case models.ResourceClasses:
		payload = &dto.UpdateClassRequest{}
	case models.ResourceUsers:
		payload = &dto.UpdateUserRequest{}
	}
	if err := c.ShouldBindJSON(payload); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}
	if err := validation.Struct(resource, payload); err != nil {
		validationFailed(c, apperrors.FieldErrors(err))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.record(resource, id); !found {
		notFound(c, resource)
		return
	}
	if fields := b.checkReferences(resource, payload, id); len(fields) > 0 {
		validationFailed(c, fields)
		return
	}

	now := b.opts.Now()
	switch req := payload.(type) {
	case *dto.UpdateDepartmentRequest:
		d := b.departments[id]
		setString(&d.Code, req.Code)
		setString(&d.Name, req.Name)
		if req.Description != nil {
			d.Description = req.Description
		}
		d.UpdatedAt = now
		b.departments[id] = d
	case *dto.UpdateSubjectRequest:
		s := b.subjects[id]
		setString(&s.Code, req.Code)
		setString(&s.Name, req.Name)
		if req.DepartmentID != nil {
			s.DepartmentID = *req.DepartmentID
		}
		if req.Description != nil {
			s.Description = req.Description
		}
		s.UpdatedAt = now
		b.subjects[id] = s
	case *dto.UpdateClassRequest:
		cl := b.classes[id]
		setString(&cl.Name, req.Name)
		if req.SubjectID != nil {
			cl.SubjectID = *req.SubjectID
		}
		if req.TeacherID != nil {
			cl.TeacherID = *req.TeacherID
		}
		if req.Capacity != nil {
			cl.Capacity = *req.Capacity
		}
		if req.Status != nil {
			cl.Status = *req.Status
		}
		if req.BannerURL != nil {
			cl.BannerURL = req.BannerURL
		}
		if req.Description != nil {
			cl.Description = req.Description
		}
		b.classes[id] = cl
	case *dto.UpdateUserRequest:
		u := b.users[id]
		setString(&u.Name, req.Name)
		setString(&u.Email, req.Email)
		if req.Role != nil {
			u.Role = *req.Role
		}
		if req.Image != nil {
			u.Image = req.Image
		}
		if req.EmailVerified != nil {
			u.EmailVerified = *req.EmailVerified
		}
		u.UpdatedAt = now
		b.users[id] = u
	}

	rec, _ := b.record(resource, id)
	c.JSON(http.StatusOK, dto.DataResponse[interface{}]{Data: rec})
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// checkReferences enforces foreign keys and department code uniqueness. Caller holds mu.
func (b *Backend) checkReferences(resource string, payload interface{}, selfID int64) map[string][]string {
	fields := map[string][]string{}
	missing := func(field string) {
		fields[field] = append(fields[field], field+" does not resolve to an existing record")
	}

	switch req := payload.(type) {
	case *dto.CreateDepartmentRequest:
		if b.codeTaken(req.Code, selfID) {
			fields["code"] = append(fields["code"], "code already exists")
		}
	case *dto.UpdateDepartmentRequest:
		if req.Code != nil && b.codeTaken(*req.Code, selfID) {
			fields["code"] = append(fields["code"], "code already exists")
		}
	case *dto.CreateSubjectRequest:
		if _, ok := b.departments[req.DepartmentID]; !ok {
			missing("departmentId")
		}
	case *dto.UpdateSubjectRequest:
		if req.DepartmentID != nil {
			if _, ok := b.departments[*req.DepartmentID]; !ok {
				missing("departmentId")
			}
		}
	case *dto.CreateClassRequest:
		if _, ok := b.subjects[req.SubjectID]; !ok {
			missing("subjectId")
		}
		if u, ok := b.users[req.TeacherID]; !ok || u.Role != models.RoleTeacher {
			missing("teacherId")
		}
	case *dto.UpdateClassRequest:
		if req.SubjectID != nil {
			if _, ok := b.subjects[*req.SubjectID]; !ok {
				missing("subjectId")
			}
		}
		if req.TeacherID != nil {
			if u, ok := b.users[*req.TeacherID]; !ok || u.Role != models.RoleTeacher {
				missing("teacherId")
			}
		}
	}
	return fields
}

func (b *Backend) codeTaken(code string, selfID int64) bool {
	for _, d := range b.departments {
		if d.ID != selfID && strings.EqualFold(d.Code, code) {
			return true
		}
	}
	return false
}

// remove deletes a record, refusing with 409 while dependents exist
func (b *Backend) remove(c *gin.Context, resource string) {
	id, ok := parseID(c)
	if !ok {
		notFound(c, resource)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.record(resource, id); !found {
		notFound(c, resource)
		return
	}

	if dependents := b.dependents(resource, id); dependents > 0 {
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeConflict, resource+" record still has "+strconv.Itoa(dependents)+" dependent records"),
		))
		return
	}

	switch resource {
	case models.ResourceDepartments:
		delete(b.departments, id)
	case models.ResourceSubjects:
		delete(b.subjects, id)
	case models.ResourceClasses:
		delete(b.classes, id)
		delete(b.enrolled, id)
	case models.ResourceUsers:
		delete(b.users, id)
	}
	c.Status(http.StatusNoContent)
}

// dependents counts records referencing id. Caller holds mu.
func (b *Backend) dependents(resource string, id int64) int {
	n := 0
	switch resource {
	case models.ResourceDepartments:
		for _, s := range b.subjects {
			if s.DepartmentID == id {
				n++
			}
		}
	case models.ResourceSubjects:
		for _, cl := range b.classes {
			if cl.SubjectID == id {
				n++
			}
		}
	case models.ResourceUsers:
		for _, cl := range b.classes {
			if cl.TeacherID == id {
				n++
			}
		}
	}
	return n
}
