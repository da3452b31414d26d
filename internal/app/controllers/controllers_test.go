package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolconsole/internal/app/analytics"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/app/resolver"
	"github.com/yigit/schoolconsole/internal/app/resource"
	"github.com/yigit/schoolconsole/internal/app/services"
	"github.com/yigit/schoolconsole/internal/app/views"
	"github.com/yigit/schoolconsole/internal/pkg/fakebackend"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	backend *fakebackend.Backend
	seeded  fakebackend.Seeded
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	backend := fakebackend.New(fakebackend.Options{})
	seeded := fakebackend.Seed(backend)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	client, err := resource.NewClient(resource.Options{BaseURL: srv.URL, Timeout: 2 * time.Second, Logger: zerolog.Nop()})
	require.NoError(t, err)
	cols := resource.NewCollections(client)

	newResolver := func() *resolver.Resolver {
		return resolver.New(resolver.SourcesFrom(cols), resolver.Options{Mode: resolver.ModeClient, Logger: zerolog.Nop()})
	}
	agg, err := analytics.NewAggregator(client, analytics.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	registry := views.NewRegistry(cols, views.Config{
		Resolver:        resolver.Options{Mode: resolver.ModeClient, Logger: zerolog.Nop()},
		DefaultPageSize: 10,
	}, zerolog.Nop())
	t.Cleanup(registry.CloseAll)

	dc := NewDashboardController(agg)
	oc := NewOptionsController(newResolver)
	vc := NewViewController(registry)
	rc := NewRecordController(services.NewServices(cols, zerolog.Nop()), newResolver)

	r := gin.New()
	g := r.Group("/console")
	g.GET("/dashboard", dc.GetDashboard)
	g.GET("/options/:resource", oc.GetOptions)
	g.GET("/filter-values/:resource", oc.GetFilterValues)
	g.POST("/views/:resource", vc.OpenView)
	g.GET("/views/:id", vc.GetView)
	g.PATCH("/views/:id", vc.UpdateView)
	g.DELETE("/views/:id", vc.CloseView)
	g.GET("/records/:resource/:id", rc.GetRecord)
	g.POST("/records/:resource", rc.CreateRecord)
	g.PATCH("/records/:resource/:id", rc.UpdateRecord)
	g.DELETE("/records/:resource/:id", rc.DeleteRecord)

	return &testEnv{router: r, backend: backend, seeded: seeded}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	assert.True(t, env.Success)
	return env.Data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	assert.False(t, resp.Success)
	return resp
}

func TestDashboard(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/console/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	dash := decode[analytics.Dashboard](t, w)
	assert.Equal(t, int64(1), dash.CapacityStatus.Full)
	assert.Equal(t, analytics.StatusOK, dash.Sections[analytics.SectionOverview].Status)
}

func TestDashboard_FailedSectionStillOK(t *testing.T) {
	env := setup(t)
	env.backend.Fail("/api/analytics/enrollment-trends", http.StatusInternalServerError)

	w := env.do(t, http.MethodGet, "/console/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	dash := decode[analytics.Dashboard](t, w)
	assert.Empty(t, dash.EnrollmentTrends)
	assert.Equal(t, analytics.StatusFailed, dash.Sections[analytics.SectionEnrollmentTrends].Status)
}

func TestOptions(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/console/options/teachers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	opts := decode[[]dto.Option](t, w)
	require.Len(t, opts, 3)
	assert.Equal(t, "Ada Lovelace", opts[0].Label)

	w = env.do(t, http.MethodGet, "/console/filter-values/subjects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[[]string](t, w), "Genetics and Heredity")

	w = env.do(t, http.MethodGet, "/console/options/invoices", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeBadRequest, decodeError(t, w).Error.Code)
}

type viewBody struct {
	ID       string `json:"id"`
	Resource string `json:"resource"`
	Snapshot struct {
		Rows      []resolver.ClassView `json:"rows"`
		Total     int64                `json:"total"`
		PageIndex int                  `json:"pageIndex"`
		PageCount int                  `json:"pageCount"`
	} `json:"snapshot"`
}

func TestViews_Lifecycle(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/console/views/classes", views.OpenRequest{PageSize: 2})
	require.Equal(t, http.StatusCreated, w.Code)
	opened := decode[viewBody](t, w)
	require.NotEmpty(t, opened.ID)
	assert.Equal(t, "classes", opened.Resource)
	assert.Equal(t, int64(4), opened.Snapshot.Total)
	assert.Equal(t, 2, opened.Snapshot.PageCount)
	require.Len(t, opened.Snapshot.Rows, 2)
	assert.True(t, opened.Snapshot.Rows[0].Subject.Resolved)

	page := 1
	w = env.do(t, http.MethodPatch, "/console/views/"+opened.ID, views.Patch{PageIndex: &page})
	require.Equal(t, http.StatusOK, w.Code)
	moved := decode[viewBody](t, w)
	assert.Equal(t, 1, moved.Snapshot.PageIndex)
	require.Len(t, moved.Snapshot.Rows, 2)

	search := "genetics"
	w = env.do(t, http.MethodPatch, "/console/views/"+opened.ID, views.Patch{Search: &search})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = env.do(t, http.MethodPatch, "/console/views/"+opened.ID, views.Patch{Search: &search, FlushSearch: true})
	require.Equal(t, http.StatusOK, w.Code)
	searched := decode[viewBody](t, w)
	assert.Equal(t, 0, searched.Snapshot.PageIndex)
	require.Len(t, searched.Snapshot.Rows, 1)
	assert.Equal(t, "Genetics Lab", searched.Snapshot.Rows[0].Name)

	w = env.do(t, http.MethodGet, "/console/views/"+opened.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[viewBody](t, w).Snapshot.Rows, 1)

	w = env.do(t, http.MethodDelete, "/console/views/"+opened.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/console/views/"+opened.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestViews_OpenWithoutBody(t *testing.T) {
	env := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/console/views/departments", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestViews_InvalidPageSize(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/console/views/users", views.OpenRequest{PageSize: 500})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecords_GetResolvedClass(t *testing.T) {
	env := setup(t)
	class := env.seeded.Classes[2]

	w := env.do(t, http.MethodGet, fmt.Sprintf("/console/records/classes/%d", class.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	view := decode[resolver.ClassView](t, w)
	assert.Equal(t, "Genetics and Heredity", view.Subject.Name)
	assert.Equal(t, "Gregor Mendel", view.Teacher.Name)

	w = env.do(t, http.MethodGet, "/console/records/classes/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrorCodeRecordNotFound, decodeError(t, w).Error.Code)

	w = env.do(t, http.MethodGet, "/console/records/classes/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, dto.ErrorCodeBadRequest, resp.Error.Code)
	assert.Equal(t, `ID must be a positive number, got "abc"`, resp.Error.Details)
}

func TestRecords_CreateValidation(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/console/records/departments", map[string]string{"code": "X"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decodeError(t, w)
	fields := resp.FieldMessages()
	assert.Contains(t, fields, "code")
	assert.Contains(t, fields, "name")
	assert.Zero(t, env.backend.Requests("/api/departments"))
}

func TestRecords_CreateUpdateDelete(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/console/records/departments", dto.CreateDepartmentRequest{Code: "HIST", Name: "History"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}](t, w)
	require.NotZero(t, created.ID)

	name := "World History"
	w = env.do(t, http.MethodPatch, fmt.Sprintf("/console/records/departments/%d", created.ID), dto.UpdateDepartmentRequest{Name: &name})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/console/records/departments/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecords_DeleteWithDependents(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodDelete, fmt.Sprintf("/console/records/departments/%d", env.seeded.Departments[0].ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrorCodeConflict, decodeError(t, w).Error.Code)
}

func TestRecords_UnknownResource(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/console/records/invoices", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodDelete, "/console/records/invoices/1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecords_CreateClassLooseCapacity(t *testing.T) {
	cases := map[string]int{
		`"25"`:  25,
		`"abc"`: 50,
		`""`:    50,
		`null`:  50,
		`-3`:    50,
	}

	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			env := setup(t)
			body := fmt.Sprintf(`{"name":"Evening Lab","subjectId":%d,"teacherId":%d,"capacity":%s}`,
				env.seeded.Subjects[0].ID, env.seeded.Teachers[0].ID, raw)

			req := httptest.NewRequest(http.MethodPost, "/console/records/classes", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			created := decode[struct {
				Capacity int `json:"capacity"`
			}](t, w)
			assert.Equal(t, want, created.Capacity)
		})
	}
}

func TestRecords_UpdateClassLooseCapacity(t *testing.T) {
	env := setup(t)
	path := fmt.Sprintf("/console/records/classes/%d", env.seeded.Classes[0].ID)

	for raw, want := range map[string]int{`"18"`: 18, `"many"`: 50} {
		req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"capacity":`+raw+`}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[struct {
			Capacity int `json:"capacity"`
		}](t, w)
		assert.Equal(t, want, updated.Capacity, raw)
	}
}
