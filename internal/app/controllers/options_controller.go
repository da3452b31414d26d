package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/app/resolver"
	"github.com/yigit/schoolconsole/internal/middleware"
	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
)

// ResolverFactory returns a resolver with an empty lookup cache
type ResolverFactory func() *resolver.Resolver

// OptionsController serves selection control options
type OptionsController struct {
	newResolver ResolverFactory
}

// NewOptionsController creates a new OptionsController
func NewOptionsController(newResolver ResolverFactory) *OptionsController {
	return &OptionsController{newResolver: newResolver}
}

func parseLookup(ctx *gin.Context) (resolver.Lookup, bool) {
	l := resolver.Lookup(ctx.Param("resource"))
	switch l {
	case resolver.LookupDepartments, resolver.LookupSubjects, resolver.LookupTeachers:
		return l, true
	}
	middleware.HandleAPIError(ctx, fmt.Errorf("%w: no options for %q", apperrors.ErrUnknownResource, l))
	return "", false
}

// GetOptions returns id/label pairs for departments, subjects or teachers
func (oc *OptionsController) GetOptions(ctx *gin.Context) {
	lookup, ok := parseLookup(ctx)
	if !ok {
		return
	}
	options, err := oc.newResolver().Options(ctx.Request.Context(), lookup)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(options))
}

// GetFilterValues returns the names offered by a subject or teacher name filter
func (oc *OptionsController) GetFilterValues(ctx *gin.Context) {
	lookup, ok := parseLookup(ctx)
	if !ok {
		return
	}
	names, err := oc.newResolver().FilterValues(ctx.Request.Context(), lookup)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(names))
}
