package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yigit/schoolconsole/internal/app/controllers"
)

// SetupRouter configures all console routes
func SetupRouter(
	router *gin.Engine,
	dashboardController *controllers.DashboardController,
	optionsController *controllers.OptionsController,
	viewController *controllers.ViewController,
	recordController *controllers.RecordController,
) {
	console := router.Group("/console")

	console.GET("/dashboard", dashboardController.GetDashboard)

	// Selection controls and name filters
	console.GET("/options/:resource", optionsController.GetOptions)
	console.GET("/filter-values/:resource", optionsController.GetFilterValues)

	// Table views: open per resource, address by view id afterwards
	views := console.Group("/views")
	{
		views.POST("/:resource", viewController.OpenView)
		views.GET("/:id", viewController.GetView)
		views.PATCH("/:id", viewController.UpdateView)
		views.DELETE("/:id", viewController.CloseView)
	}

	records := console.Group("/records/:resource")
	{
		records.POST("", recordController.CreateRecord)
		records.GET("/:id", recordController.GetRecord)
		records.PATCH("/:id", recordController.UpdateRecord)
		records.DELETE("/:id", recordController.DeleteRecord)
	}
}
