package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"immitrack/internal/authz"
	"immitrack/internal/handlers"
	"immitrack/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	taskHandler *handlers.TaskHandler,
	reportHandler *handlers.ReportHandler,
	realtimeHandler *handlers.RealtimeHandler,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/login", authHandler.Login)

	// ---- protected
	api := r.Group("/")
	api.Use(middleware.AuthMiddleware(jwtSecret))
	api.Use(middleware.ReadOnlyGuard())

	// TASKS
	tasks := api.Group("/tasks")
	{
		tasks.GET("", taskHandler.List)
		tasks.POST("", taskHandler.Create)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PATCH("/:id", taskHandler.Update)
		tasks.POST("/:id/owners", taskHandler.ToggleOwner)
		tasks.POST("/:id/subtasks/:index/toggle", taskHandler.ToggleSubtask)
		tasks.POST("/:id/expand", taskHandler.ToggleExpanded)
		tasks.POST("/:id/move", taskHandler.Move)
	}

	api.GET("/board", taskHandler.Board)
	api.POST("/reload", middleware.RequireRoles(authz.RoleOwner), taskHandler.Reload)

	// REPORTS
	api.GET("/stats", reportHandler.Stats)
	reports := api.Group("/reports")
	{
		reports.GET("/summary.pdf", reportHandler.SummaryPDF)
		reports.GET("/digest", reportHandler.Digest)
	}

	// REALTIME
	api.GET("/ws", realtimeHandler.Subscribe)

	return r
}
