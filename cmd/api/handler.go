package api

import (
	authUsecase "studydash-backend/internal/auth/usecase"
	courseDelivery "studydash-backend/internal/course/delivery"
	courseUsecasePkg "studydash-backend/internal/course/usecase"
	integrationDelivery "studydash-backend/internal/integration/delivery"
	integrationUsecasePkg "studydash-backend/internal/integration/usecase"
	"studydash-backend/internal/notification"
	"studydash-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase         authUsecase.AuthUsecase
	config              *config.Config
	courseHandler       *courseDelivery.CourseHandler
	integrationHandler  *integrationDelivery.IntegrationHandler
	notificationHandler *notification.Handler
}

func NewHandler(
	authUc authUsecase.AuthUsecase,
	courseUc courseUsecasePkg.CourseUsecase,
	integrationUc integrationUsecasePkg.IntegrationUsecase,
	notificationService *notification.Service,
	cfg *config.Config,
) *Handler {
	return &Handler{
		authUsecase:         authUc,
		config:              cfg,
		courseHandler:       courseDelivery.NewCourseHandler(courseUc),
		integrationHandler:  integrationDelivery.NewIntegrationHandler(integrationUc),
		notificationHandler: notification.NewHandler(notificationService),
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.courseHandler, h.integrationHandler, h.notificationHandler)

	return r.Run(addr)
}
