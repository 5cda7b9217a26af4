package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"annotation-backend/internal/access"
	"annotation-backend/internal/shared/auth"
	"annotation-backend/internal/shared/server/respond"
)

const (
	userIDKey   = "userId"
	userRoleKey = "userRole"
	userNameKey = "userName"
)

var publicPaths = map[string]struct{}{
	"/api/v1/health":  {},
	"/api/v1/metrics": {},
}

// Auth validates bearer JWTs and stores the caller identity in context.
// In dev-like environments X-User-Id / X-User-Role headers are accepted instead.
func Auth(env string) gin.HandlerFunc {
	devHeaders := env == "dev" || env == "local" || env == "test"

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		if _, ok := publicPaths[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))

		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			claims, err := auth.VerifyJWT(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			setIdentity(c, claims.Subject, claims.Role, claims.Username)
			c.Next()
			return
		}

		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if !devHeaders || userID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		role := c.GetHeader("X-User-Role")
		if strings.TrimSpace(role) == "" {
			role = access.RoleExpert
		}
		setIdentity(c, userID, role, strings.TrimSpace(c.GetHeader("X-Username")))
		c.Next()
	}
}

func setIdentity(c *gin.Context, userID, role, username string) {
	c.Set(userIDKey, userID)
	c.Set(userRoleKey, access.NormalizeRole(role))
	if username != "" {
		c.Set(userNameKey, username)
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userIDKey)
}

// RoleFromContext fetches the role set by the auth middleware.
func RoleFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userRoleKey)
}

// UserNameFromContext fetches the username set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userNameKey)
}

// ActorFromContext builds the access-policy actor for the current request.
func ActorFromContext(c *gin.Context) access.Actor {
	return access.Actor{
		UserID:   UserIDFromContext(c),
		Role:     RoleFromContext(c),
		Username: UserNameFromContext(c),
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !access.IsAdmin(ActorFromContext(c)) {
			respond.Error(c, http.StatusForbidden, "forbidden", "admin role required", nil)
			return
		}
		c.Next()
	}
}
