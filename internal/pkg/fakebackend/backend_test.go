package fakebackend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func listUsers(t *testing.T, b *Backend, rawQuery string) dto.ListResponse[models.User] {
	t.Helper()
	w := httptest.NewRecorder()
	b.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users?"+rawQuery, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ListResponse[models.User]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestList_PaginationInfo(t *testing.T) {
	b := New(Options{})
	seeded := Seed(b)
	users := int64(len(seeded.Teachers) + len(seeded.Students))

	resp := listUsers(t, b, "page=2&pageSize=2&sort=id:asc")
	require.Len(t, resp.Data, 2)
	assert.Equal(t, users, resp.Total)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, dto.PaginationInfo{
		CurrentPage: 2,
		TotalPages:  int((users + 1) / 2),
		PageSize:    2,
		TotalItems:  users,
	}, *resp.Pagination)
}

func TestList_ClientModePageSize(t *testing.T) {
	b := New(Options{})
	seeded := Seed(b)
	users := len(seeded.Teachers) + len(seeded.Students)

	resp := listUsers(t, b, "pageSize=1000")
	assert.Len(t, resp.Data, users)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 1000, resp.Pagination.PageSize)
	assert.Equal(t, 1, resp.Pagination.TotalPages)

	resp = listUsers(t, b, "pageSize=50000")
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 1000, resp.Pagination.PageSize)
}
