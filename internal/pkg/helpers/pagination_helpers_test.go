package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCalculateSliceIndices(t *testing.T) {
	start, end := CalculateSliceIndices(1, 10, 25)
	assert.Equal(t, 0, start)
	assert.Equal(t, 10, end)

	start, end = CalculateSliceIndices(3, 10, 25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	start, end = CalculateSliceIndices(4, 10, 25)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, PageCount(0, 10))
	assert.Equal(t, 3, PageCount(21, 10))
	assert.Equal(t, 2, PageCount(20, 10))
}

func TestParsePaginationParams(t *testing.T) {
	tests := []struct {
		name     string
		rawQuery string
		maxSize  int
		page     int
		size     int
	}{
		{"defaults", "", 0, 1, DefaultPageSize},
		{"explicit", "page=3&pageSize=25", 0, 3, 25},
		{"garbage", "page=x&pageSize=-4", 0, 1, DefaultPageSize},
		{"clamped to default max", "pageSize=500", 0, 1, MaxPageSize},
		{"caller max allows full client fetch", "pageSize=1000", 1000, 1, 1000},
		{"clamped to caller max", "pageSize=5000", 1000, 1, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/subjects?"+tt.rawQuery, nil)

			page, size := ParsePaginationParams(c, tt.maxSize)
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.size, size)
		})
	}
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(21, 3, 10)
	assert.Equal(t, 3, info.CurrentPage)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 10, info.PageSize)
	assert.Equal(t, int64(21), info.TotalItems)

	info = NewPaginationInfo(0, 0, 0)
	assert.Equal(t, DefaultPage, info.CurrentPage)
	assert.Equal(t, 1, info.TotalPages)
	assert.Equal(t, DefaultPageSize, info.PageSize)
}
