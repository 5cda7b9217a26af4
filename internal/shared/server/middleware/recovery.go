package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"annotation-backend/internal/shared/metrics"
	"annotation-backend/internal/shared/server/respond"
	"annotation-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into the standard 500 envelope. The stack is
// logged with the caller's identity and any document the request touched.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				metrics.IncPanics()
				telemetry.Error("panic", map[string]any{
					"request_id":  RequestIDFromContext(c),
					"user_id":     UserIDFromContext(c),
					"document_id": c.GetString("documentId"),
					"error":       rec,
					"stack":       string(debug.Stack()),
					"path":        c.Request.URL.Path,
					"method":      c.Request.Method,
				})
				if c.Writer.Written() {
					c.Abort()
					return
				}
				respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
			}
		}()
		c.Next()
	}
}
