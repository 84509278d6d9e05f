package router

import (
	"github.com/gin-gonic/gin"

	"github.com/calorbunga/backend/internal/api"
	"github.com/calorbunga/backend/internal/middleware"
	"github.com/calorbunga/backend/internal/service"
)

// SetupRouter configures the application routes
func SetupRouter(
	authHandler *api.AuthHandler,
	logHandler *api.LogHandler,
	authService service.IAuthService,
	ingestLimiter *middleware.RateLimiter,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS())

	v1 := router.Group("/api/v1")

	authHandler.RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authService))

	var limiter gin.HandlerFunc
	if ingestLimiter != nil {
		limiter = ingestLimiter.RateLimitMiddleware()
	}
	logHandler.RegisterRoutes(protected, limiter)

	return router
}
