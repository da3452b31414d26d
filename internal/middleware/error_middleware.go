package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
)

// --- Central Error Handling ---

// HandleAPIError maps a resource-layer error onto a response. The error is
// also attached to the context so the request logger records it.
func HandleAPIError(c *gin.Context, err error) {
	_ = c.Error(err)

	message := func(fallback string) string {
		var ce *apperrors.CustomError
		if errors.As(err, &ce) && ce.Message != "" {
			return ce.Message
		}
		return fallback
	}

	switch {
	case apperrors.HasCode(err, apperrors.CodeCollectionNotFound):
		// The console route exists; the backend does not serve the collection
		c.JSON(http.StatusBadGateway, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeCollectionNotFound, message("Collection not found")),
		))
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeRecordNotFound, message("Record not found")),
		))
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message("Validation failed")),
		).WithFieldErrors(apperrors.FieldErrors(err)))
	case errors.Is(err, apperrors.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeSubmitInFlight, "Form is already being submitted"),
		))
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeConflict, message("Conflict")),
		))
	case errors.Is(err, apperrors.ErrInvalidQuery), errors.Is(err, apperrors.ErrUnknownResource):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid request").WithDetails(err.Error()),
		))
	case errors.Is(err, apperrors.ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusBadGateway, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeBackendDown, "Backend unreachable"),
		))
	case errors.Is(err, apperrors.ErrServer):
		c.JSON(http.StatusBadGateway, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeBackendError, message("Backend error")),
		))
	default:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
		))
	}
}
