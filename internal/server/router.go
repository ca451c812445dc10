package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseforge-backend/internal/handlers"
	"github.com/yungbote/courseforge-backend/internal/middleware"
)

type RouterConfig struct {
	CourseHandler      *handlers.CourseHandler
	GuestCourseHandler *handlers.GuestCourseHandler
	ThumbnailHandler   *handlers.ThumbnailHandler
	TransferHandler    *handlers.TransferHandler
	ResumeHandler      *handlers.ResumeHandler
	SourcesHandler     *handlers.SourcesHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-User-ID"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(middleware.OptionalUser())
	{
		// Guest generation flow
		api.POST("/generation/jobs", cfg.GuestCourseHandler.BeginJob)
		api.GET("/guest-courses/:id", cfg.GuestCourseHandler.GetGuestCourse)
		api.PUT("/guest-courses/:id", cfg.GuestCourseHandler.SaveStreamResult)
		api.PUT("/guest-courses/:id/sources", cfg.GuestCourseHandler.SaveSearchResults)
		api.GET("/courses/:id/sources", cfg.SourcesHandler.GetSources)
		// Thumbnail coordination and resume arbitration serve guests and
		// authed users alike.
		api.POST("/courses/ensure-thumbnail", cfg.ThumbnailHandler.EnsureThumbnail)
		api.POST("/generation/resume", cfg.ResumeHandler.ResolveResume)
		api.GET("/courses/:id", cfg.CourseHandler.GetCourse)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(middleware.RequireUser())
	// Transfer
	protected.POST("/courses/transfer", cfg.TransferHandler.TransferGuestCourse)
	// Durable courses
	protected.GET("/user/courses", cfg.CourseHandler.ListUserCourses)
	protected.POST("/courses", cfg.CourseHandler.CreatePlaceholder)
	protected.PUT("/courses/:id", cfg.CourseHandler.SaveCompleted)
	protected.PATCH("/courses/:id/title", cfg.CourseHandler.Rename)
	protected.PATCH("/courses/:id/visibility", cfg.CourseHandler.SetVisibility)
	protected.PATCH("/courses/:id/thumbnail", cfg.CourseHandler.UpdateThumbnail)
	protected.PATCH("/courses/:id/sources", cfg.CourseHandler.UpdateSources)
	protected.DELETE("/courses/:id", cfg.CourseHandler.Delete)

	return router
}
