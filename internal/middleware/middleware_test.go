package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"not found", apperrors.NewNotFoundError("classes", 9), http.StatusNotFound, dto.ErrorCodeRecordNotFound},
		{"collection not found", fmt.Errorf("list: %w", apperrors.NewCollectionNotFoundError("subjects")), http.StatusBadGateway, dto.ErrorCodeCollectionNotFound},
		{"validation", apperrors.NewValidationError("classes", "bad").WithField("teacherId", "must be a teacher"), http.StatusUnprocessableEntity, dto.ErrorCodeValidationFailed},
		{"double submit", fmt.Errorf("classes: %w", apperrors.ErrSubmissionInFlight), http.StatusConflict, dto.ErrorCodeSubmitInFlight},
		{"conflict", apperrors.NewConflictError("departments", "subjects still reference it"), http.StatusConflict, dto.ErrorCodeConflict},
		{"invalid query", fmt.Errorf("%w: page size", apperrors.ErrInvalidQuery), http.StatusBadRequest, dto.ErrorCodeBadRequest},
		{"unknown resource", apperrors.ErrUnknownResource, http.StatusBadRequest, dto.ErrorCodeBadRequest},
		{"network", apperrors.NewNetworkError("users", errors.New("refused")), http.StatusBadGateway, dto.ErrorCodeBackendDown},
		{"deadline", context.DeadlineExceeded, http.StatusBadGateway, dto.ErrorCodeBackendDown},
		{"server", apperrors.NewServerError("users", 503, ""), http.StatusBadGateway, dto.ErrorCodeBackendError},
		{"other", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			require.Len(t, c.Errors, 1)
		})
	}
}

func TestHandleAPIError_FieldMessages(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	err := apperrors.NewValidationError("classes", "Validation failed").
		WithField("teacherId", "must reference a teacher").
		WithField("capacity", "must be positive")
	HandleAPIError(c, err)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string][]string{
		"teacherId": {"must reference a teacher"},
		"capacity":  {"must be positive"},
	}, resp.FieldMessages())
	assert.Equal(t, "capacity", resp.Errors[0].Field)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("requestID")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}

func TestBindJSON(t *testing.T) {
	var payload struct {
		Name string `json:"name"`
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	c.Request.Header.Set("Content-Type", "application/json")
	assert.False(t, BindJSON(c, &payload))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Biology"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	assert.True(t, BindJSON(c, &payload))
	assert.Equal(t, "Biology", payload.Name)
}
