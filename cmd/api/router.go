package api

import (
	"net/http"

	"studydash-backend/internal/auth/delivery"
	authUsecase "studydash-backend/internal/auth/usecase"
	courseDelivery "studydash-backend/internal/course/delivery"
	integrationDelivery "studydash-backend/internal/integration/delivery"
	"studydash-backend/internal/notification"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	r *gin.Engine,
	authUc authUsecase.AuthUsecase,
	courseHandler *courseDelivery.CourseHandler,
	integrationHandler *integrationDelivery.IntegrationHandler,
	notificationHandler *notification.Handler,
) {
	authHandler := delivery.NewAuthHandler(authUc)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(authUc), authHandler.Me)
		}

		// Course routes (protected)
		courses := api.Group("/courses")
		courses.Use(delivery.AuthMiddleware(authUc))
		{
			courses.POST("", courseHandler.CreateCourse)
			courses.GET("", courseHandler.ListCourses)
			courses.GET("/:id", courseHandler.GetCourse)
			courses.PATCH("/:id", courseHandler.UpdateCourse)
			courses.DELETE("/:id", courseHandler.DeleteCourse)
		}

		// Work item routes (protected)
		items := api.Group("/work-items")
		items.Use(delivery.AuthMiddleware(authUc))
		{
			items.POST("", courseHandler.CreateWorkItem)
			items.GET("", courseHandler.ListWorkItems)
			items.GET("/:id", courseHandler.GetWorkItem)
			items.PATCH("/:id", courseHandler.UpdateWorkItem)
			items.DELETE("/:id", courseHandler.DeleteWorkItem)
		}

		// Calendar event routes (protected)
		events := api.Group("/events")
		events.Use(delivery.AuthMiddleware(authUc))
		{
			events.POST("", courseHandler.CreateEvent)
			events.GET("", courseHandler.ListEvents)
			events.PATCH("/:id", courseHandler.UpdateEvent)
			events.DELETE("/:id", courseHandler.DeleteEvent)
		}

		// Integration routes (protected)
		integrations := api.Group("/integrations")
		integrations.Use(delivery.AuthMiddleware(authUc))
		{
			integrations.GET("", integrationHandler.List)
			integrations.GET("/:provider", integrationHandler.Get)
			integrations.POST("/:provider", integrationHandler.Connect)
			integrations.PATCH("/:provider", integrationHandler.UpdateSettings)
			integrations.DELETE("/:provider", integrationHandler.Disconnect)
			integrations.POST("/:provider/sync", integrationHandler.Sync)
		}

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(delivery.AuthMiddleware(authUc))
		{
			notifications.GET("", notificationHandler.List)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
		}
	}
}
