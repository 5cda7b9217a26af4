package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"annotation-backend/internal/annotations"
	"annotation-backend/internal/assignments"
	"annotation-backend/internal/documents"
	"annotation-backend/internal/services/health"
	"annotation-backend/internal/shared/config"
	"annotation-backend/internal/shared/metrics"
	"annotation-backend/internal/shared/server/middleware"
	"annotation-backend/internal/shared/server/respond"
	"annotation-backend/internal/stats"
	"annotation-backend/internal/users"
)

// RouterDeps carries the handlers mounted under /api/v1.
type RouterDeps struct {
	Config            config.Config
	Health            *health.Service
	UserHandler       *users.Handler
	DocumentHandler   *documents.Handler
	AssignmentHandler *assignments.Handler
	AnnotationHandler *annotations.Handler
	StatsHandler      *stats.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.Health.Status(c.Request.Context()))
	})
	api.GET("/metrics", metrics.Handler())

	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterRoutes(api)
	}
	if deps.AnnotationHandler != nil {
		deps.AnnotationHandler.RegisterRoutes(api)
	}
	if deps.StatsHandler != nil {
		deps.StatsHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
