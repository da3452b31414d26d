package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/app/services"
	"github.com/yigit/schoolconsole/internal/middleware"
	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
)

// FormKeyHeader scopes the double-submit guard to one form instance
const FormKeyHeader = "X-Form-Key"

// RecordController handles show, create, edit and delete of single records
type RecordController struct {
	services    *services.Services
	newResolver ResolverFactory
}

// NewRecordController creates a new RecordController
func NewRecordController(svc *services.Services, newResolver ResolverFactory) *RecordController {
	return &RecordController{services: svc, newResolver: newResolver}
}

func parseRecordID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid record ID")
		errorDetail = errorDetail.WithDetailf("ID must be a positive number, got %q", ctx.Param("id"))
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

func unknownResource(ctx *gin.Context) {
	middleware.HandleAPIError(ctx, fmt.Errorf("%w: %q", apperrors.ErrUnknownResource, ctx.Param("resource")))
}

func submitContext(ctx *gin.Context) context.Context {
	return services.WithFormKey(ctx.Request.Context(), ctx.GetHeader(FormKeyHeader))
}

func respond(ctx *gin.Context, status int, data interface{}, err error) {
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(status, dto.NewAPIResponse(data))
}

// GetRecord returns one record. Classes and subjects come with their relations resolved.
func (rc *RecordController) GetRecord(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}
	reqCtx := ctx.Request.Context()

	switch ctx.Param("resource") {
	case models.ResourceDepartments:
		rec, err := rc.services.Departments.Get(reqCtx, id)
		respond(ctx, http.StatusOK, rec, err)
	case models.ResourceSubjects:
		rec, err := rc.services.Subjects.Get(reqCtx, id)
		if err != nil {
			respond(ctx, 0, nil, err)
			return
		}
		respond(ctx, http.StatusOK, rc.newResolver().ResolveSubjects(reqCtx, []models.Subject{rec})[0], nil)
	case models.ResourceClasses:
		rec, err := rc.services.Classes.Get(reqCtx, id)
		if err != nil {
			respond(ctx, 0, nil, err)
			return
		}
		respond(ctx, http.StatusOK, rc.newResolver().ResolveClass(reqCtx, rec), nil)
	case models.ResourceUsers:
		rec, err := rc.services.Users.Get(reqCtx, id)
		respond(ctx, http.StatusOK, rec, err)
	default:
		unknownResource(ctx)
	}
}

// CreateRecord submits a create form
func (rc *RecordController) CreateRecord(ctx *gin.Context) {
	reqCtx := submitContext(ctx)

	switch ctx.Param("resource") {
	case models.ResourceDepartments:
		var req dto.CreateDepartmentRequest
		if middleware.BindJSON(ctx, &req) {
			rec, err := rc.services.Departments.Create(reqCtx, &req)
			respond(ctx, http.StatusCreated, rec, err)
		}
	case models.ResourceSubjects:
		var req dto.CreateSubjectRequest
		if middleware.BindJSON(ctx, &req) {
			rec, err := rc.services.Subjects.Create(reqCtx, &req)
			respond(ctx, http.StatusCreated, rec, err)
		}
	case models.ResourceClasses:
		var req dto.CreateClassRequest
		if middleware.BindJSON(ctx, &req) {
			rec, err := rc.services.Classes.Create(reqCtx, &req)
			respond(ctx, http.StatusCreated, rec, err)
		}
	case models.ResourceUsers:
		var req dto.CreateUserRequest
		if middleware.BindJSON(ctx, &req) {
			rec, err := rc.services.Users.Create(reqCtx, &req)
			respond(ctx, http.StatusCreated, rec, err)
		}
	default:
		unknownResource(ctx)
	}
}

// UpdateRecord submits an edit form; only the fields present are changed
func (rc *RecordController) UpdateRecord(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}
	reqCtx := submitContext(ctx)

	switch ctx.Param("resource") {
	case models.ResourceDepartments:
		var req dto.UpdateDepartmentRequest
		if middleware.BindJSON(ctx, &req) {
			rec, err := rc.services.Departments.Update(reqCtx, id, &req)
			respond(ctx, http.StatusOK, rec, err)
		}
	case models.ResourceSubjects:
		var req dto.UpdateSubjectRequest
		if middleware.BindJSON(ctx, &req) {
			rec, err := rc.services.Subjects.Update(reqCtx, id, &req)
			respond(ctx, http.StatusOK, rec, err)
		}
	case models.ResourceClasses:
		var req dto.UpdateClassRequest
		if middleware.BindJSON(ctx, &req) {
			rec, err := rc.services.Classes.Update(reqCtx, id, &req)
			respond(ctx, http.StatusOK, rec, err)
		}
	case models.ResourceUsers:
		var req dto.UpdateUserRequest
		if middleware.BindJSON(ctx, &req) {
			rec, err := rc.services.Users.Update(reqCtx, id, &req)
			respond(ctx, http.StatusOK, rec, err)
		}
	default:
		unknownResource(ctx)
	}
}

// DeleteRecord deletes a record that nothing references
func (rc *RecordController) DeleteRecord(ctx *gin.Context) {
	id, ok := parseRecordID(ctx)
	if !ok {
		return
	}
	reqCtx := ctx.Request.Context()

	var err error
	switch ctx.Param("resource") {
	case models.ResourceDepartments:
		err = rc.services.Departments.Delete(reqCtx, id)
	case models.ResourceSubjects:
		err = rc.services.Subjects.Delete(reqCtx, id)
	case models.ResourceClasses:
		err = rc.services.Classes.Delete(reqCtx, id)
	case models.ResourceUsers:
		err = rc.services.Users.Delete(reqCtx, id)
	default:
		unknownResource(ctx)
		return
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
