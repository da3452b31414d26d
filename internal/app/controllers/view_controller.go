package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/app/views"
	"github.com/yigit/schoolconsole/internal/middleware"
)

// ViewResponse identifies a view next to its current snapshot
type ViewResponse struct {
	ID       string      `json:"id"`
	Resource string      `json:"resource,omitempty"`
	Snapshot interface{} `json:"snapshot"`
}

// ViewController opens, changes and closes table views
type ViewController struct {
	registry *views.Registry
}

// NewViewController creates a new ViewController
func NewViewController(registry *views.Registry) *ViewController {
	return &ViewController{registry: registry}
}

// OpenView opens a view of a resource and returns its first page
func (vc *ViewController) OpenView(ctx *gin.Context) {
	var req views.OpenRequest
	if ctx.Request.ContentLength != 0 && !middleware.BindJSON(ctx, &req) {
		return
	}

	resourceName := ctx.Param("resource")
	id, snap, err := vc.registry.Open(ctx.Request.Context(), resourceName, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(ViewResponse{ID: id, Resource: resourceName, Snapshot: snap}))
}

// GetView returns the current snapshot of a view
func (vc *ViewController) GetView(ctx *gin.Context) {
	id := ctx.Param("id")
	view, err := vc.registry.Get(id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(ViewResponse{ID: id, Resource: view.Resource(), Snapshot: view.Snapshot()}))
}

// UpdateView changes search, filters, sort or page of a view.
// A search-only change is debounced and answered with 202.
func (vc *ViewController) UpdateView(ctx *gin.Context) {
	var patch views.Patch
	if !middleware.BindJSON(ctx, &patch) {
		return
	}

	id := ctx.Param("id")
	snap, err := vc.registry.Update(ctx.Request.Context(), id, patch)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	status := http.StatusOK
	if patch.Search != nil && !patch.FlushSearch && !patch.Refresh &&
		patch.Filters == nil && patch.Sort == nil && patch.PageIndex == nil && patch.PageSize == nil && patch.Mode == nil {
		status = http.StatusAccepted
	}
	ctx.JSON(status, dto.NewAPIResponse(ViewResponse{ID: id, Snapshot: snap}))
}

// CloseView closes a view
func (vc *ViewController) CloseView(ctx *gin.Context) {
	if err := vc.registry.Close(ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
