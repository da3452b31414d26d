package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/app/resource"
	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
	"github.com/yigit/schoolconsole/internal/pkg/fakebackend"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T, wrap func(http.Handler) http.Handler) (*Services, *fakebackend.Backend, fakebackend.Seeded) {
	t.Helper()
	backend := fakebackend.New(fakebackend.Options{})
	seeded := fakebackend.Seed(backend)

	var handler http.Handler = backend.Handler()
	if wrap != nil {
		handler = wrap(handler)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := resource.NewClient(resource.Options{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return NewServices(resource.NewCollections(client), zerolog.Nop()), backend, seeded
}

func TestClassCreate_CapacityDefault(t *testing.T) {
	svc, _, seeded := setup(t, nil)

	class, err := svc.Classes.Create(context.Background(), &dto.CreateClassRequest{
		Name:      "Intro Lab",
		SubjectID: seeded.Subjects[0].ID,
		TeacherID: seeded.Teachers[0].ID,
		Capacity:  -4,
	})
	require.NoError(t, err)
	assert.Equal(t, models.Capacity(models.DefaultCapacity), class.Capacity)
	assert.Equal(t, models.ClassStatusActive, class.Status)
}

func TestCreate_InvalidPayloadNeverReachesBackend(t *testing.T) {
	svc, backend, _ := setup(t, nil)

	_, err := svc.Classes.Create(context.Background(), &dto.CreateClassRequest{Name: "", SubjectID: 0, TeacherID: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	fields := apperrors.FieldErrors(err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "subjectId")
	assert.Zero(t, backend.Requests("/api/classes"))

	bad := "not-an-email"
	_, err = svc.Users.Update(context.Background(), 1, &dto.UpdateUserRequest{Email: &bad})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, apperrors.FieldErrors(err), "email")
}

func TestCreate_BackendFieldErrors(t *testing.T) {
	svc, _, seeded := setup(t, nil)

	// a student cannot teach a class: only the backend knows the role of id
	_, err := svc.Classes.Create(context.Background(), &dto.CreateClassRequest{
		Name:      "Reading Club",
		SubjectID: seeded.Subjects[0].ID,
		TeacherID: seeded.Students[0].ID,
		Capacity:  12,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, apperrors.FieldErrors(err), "teacherId")
}

func TestDelete_RejectedWhileDependentsExist(t *testing.T) {
	svc, backend, seeded := setup(t, nil)
	ctx := context.Background()

	err := svc.Departments.Delete(ctx, seeded.Departments[2].ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Zero(t, backend.Requests("/api/departments/3"), "refused before the delete call")

	err = svc.Subjects.Delete(ctx, seeded.Subjects[1].ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	err = svc.Users.Delete(ctx, seeded.Teachers[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestDelete_Cascade(t *testing.T) {
	svc, _, seeded := setup(t, nil)
	ctx := context.Background()

	// emptying a department bottom-up makes it deletable
	for _, c := range seeded.Classes {
		if c.SubjectID == seeded.Subjects[2].ID {
			require.NoError(t, svc.Classes.Delete(ctx, c.ID))
		}
	}
	require.NoError(t, svc.Subjects.Delete(ctx, seeded.Subjects[2].ID))
	require.NoError(t, svc.Departments.Delete(ctx, seeded.Departments[2].ID))

	_, err := svc.Departments.Get(ctx, seeded.Departments[2].ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDoubleSubmitIsRejected(t *testing.T) {
	release := make(chan struct{})
	var posts int32
	svc, _, _ := setup(t, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				atomic.AddInt32(&posts, 1)
				<-release
			}
			next.ServeHTTP(w, r)
		})
	})
	ctx := context.Background()
	req := &dto.CreateDepartmentRequest{Code: "ART", Name: "Fine Arts"}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Departments.Create(ctx, req)
		done <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&posts) == 1 }, time.Second, time.Millisecond)

	_, err := svc.Departments.Create(ctx, &dto.CreateDepartmentRequest{Code: "ART", Name: "Fine Arts"})
	assert.ErrorIs(t, err, apperrors.ErrSubmissionInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&posts))

	// the form is free again once the first submit returned
	_, err = svc.Departments.Create(ctx, &dto.CreateDepartmentRequest{Code: "MUS", Name: "Music"})
	assert.NoError(t, err)
}

func TestSubmissionGuard(t *testing.T) {
	g := newSubmissionGuard()

	release, err := g.acquire("classes/new")
	require.NoError(t, err)

	_, err = g.acquire("classes/new")
	assert.ErrorIs(t, err, apperrors.ErrSubmissionInFlight)

	other, err := g.acquire("classes/7")
	require.NoError(t, err)
	other()

	release()
	again, err := g.acquire("classes/new")
	require.NoError(t, err)
	again()
}

func TestWithFormKey(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "classes/new", formKey(ctx, models.ResourceClasses, "new"))
	assert.Equal(t, "classes/tab-2", formKey(WithFormKey(ctx, "tab-2"), models.ResourceClasses, "new"))
	assert.Equal(t, "classes/new", formKey(WithFormKey(ctx, ""), models.ResourceClasses, "new"))
}
