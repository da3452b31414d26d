package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/schoolconsole/internal/app/analytics"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/middleware"
)

// DashboardController serves the aggregated dashboard
type DashboardController struct {
	aggregator *analytics.Aggregator
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(aggregator *analytics.Aggregator) *DashboardController {
	return &DashboardController{aggregator: aggregator}
}

// GetDashboard fetches every dashboard section. Failed sections come back
// empty with status "failed"; the response itself only fails on setup errors.
func (dc *DashboardController) GetDashboard(ctx *gin.Context) {
	dashboard, err := dc.aggregator.Aggregate(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dashboard))
}
