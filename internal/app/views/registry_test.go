package views

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/query"
	"github.com/yigit/schoolconsole/internal/app/resolver"
	"github.com/yigit/schoolconsole/internal/app/resource"
	"github.com/yigit/schoolconsole/internal/app/table"
	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
	"github.com/yigit/schoolconsole/internal/pkg/fakebackend"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRegistry(t *testing.T, maxOpen int) *Registry {
	t.Helper()
	backend := fakebackend.New(fakebackend.Options{})
	fakebackend.Seed(backend)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	client, err := resource.NewClient(resource.Options{BaseURL: srv.URL, Timeout: time.Second, Logger: zerolog.Nop()})
	require.NoError(t, err)

	reg := NewRegistry(resource.NewCollections(client), Config{
		Resolver:        resolver.Options{Mode: resolver.ModeClient, Logger: zerolog.Nop()},
		DefaultPageSize: 10,
		MaxOpen:         maxOpen,
	}, zerolog.Nop())
	t.Cleanup(reg.CloseAll)
	return reg
}

func TestOpen_ClassesAreResolved(t *testing.T) {
	reg := newRegistry(t, 4)

	id, raw, err := reg.Open(context.Background(), models.ResourceClasses, OpenRequest{
		Sort: &query.Sort{Field: "id", Order: query.OrderAsc},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	snap, ok := raw.(table.Snapshot[resolver.ClassView])
	require.True(t, ok)
	require.Len(t, snap.Rows, 4)
	assert.Equal(t, "Genetics and Heredity", snap.Rows[2].Subject.Name)
	assert.Equal(t, "Gregor Mendel", snap.Rows[2].Teacher.Name)
}

func TestOpen_TeachersOnly(t *testing.T) {
	reg := newRegistry(t, 4)

	_, raw, err := reg.Open(context.Background(), ResourceTeachers, OpenRequest{})
	require.NoError(t, err)

	snap := raw.(table.Snapshot[models.User])
	assert.Equal(t, int64(3), snap.Total)
	for _, u := range snap.Rows {
		assert.Equal(t, models.RoleTeacher, u.Role)
	}
}

func TestOpen_UnknownResource(t *testing.T) {
	reg := newRegistry(t, 4)

	_, _, err := reg.Open(context.Background(), "invoices", OpenRequest{})
	assert.ErrorIs(t, err, apperrors.ErrUnknownResource)
	assert.Zero(t, reg.Len())
}

func TestUpdate_PatchKeepsRequestedPage(t *testing.T) {
	reg := newRegistry(t, 4)
	ctx := context.Background()

	id, _, err := reg.Open(ctx, models.ResourceUsers, OpenRequest{
		PageSize: 2,
		Sort:     &query.Sort{Field: "id", Order: query.OrderAsc},
	})
	require.NoError(t, err)

	page := 2
	raw, err := reg.Update(ctx, id, Patch{PageIndex: &page})
	require.NoError(t, err)
	snap := raw.(table.Snapshot[models.User])
	assert.Equal(t, 2, snap.PageIndex)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, int64(5), snap.Rows[0].ID)

	size := 3
	raw, err = reg.Update(ctx, id, Patch{PageSize: &size})
	require.NoError(t, err)
	assert.Equal(t, 0, raw.(table.Snapshot[models.User]).PageIndex)

	filters := []query.Filter{{Field: "role", Operator: query.OperatorEq, Value: "student"}}
	raw, err = reg.Update(ctx, id, Patch{Filters: &filters})
	require.NoError(t, err)
	assert.Equal(t, int64(1), raw.(table.Snapshot[models.User]).Total)
}

func TestUpdate_FlushSearch(t *testing.T) {
	reg := newRegistry(t, 4)
	ctx := context.Background()

	id, _, err := reg.Open(ctx, models.ResourceDepartments, OpenRequest{})
	require.NoError(t, err)

	text := "bio"
	raw, err := reg.Update(ctx, id, Patch{Search: &text, FlushSearch: true})
	require.NoError(t, err)
	snap := raw.(table.Snapshot[models.Department])
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "BIO", snap.Rows[0].Code)
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	reg := newRegistry(t, 2)
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reg.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	first, _, err := reg.Open(ctx, models.ResourceDepartments, OpenRequest{})
	require.NoError(t, err)
	second, _, err := reg.Open(ctx, models.ResourceSubjects, OpenRequest{})
	require.NoError(t, err)

	// touching the first view makes the second the oldest
	_, err = reg.Get(first)
	require.NoError(t, err)

	_, _, err = reg.Open(ctx, models.ResourceUsers, OpenRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	_, err = reg.Get(second)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = reg.Get(first)
	assert.NoError(t, err)
}

func TestClose(t *testing.T) {
	reg := newRegistry(t, 4)

	id, _, err := reg.Open(context.Background(), models.ResourceDepartments, OpenRequest{})
	require.NoError(t, err)
	require.NoError(t, reg.Close(id))
	assert.ErrorIs(t, reg.Close(id), apperrors.ErrNotFound)
}
