package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"annotation-backend/internal/shared/apperr"
	"annotation-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if role := c.GetString("userRole"); role != "" {
		fields["role"] = role
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// FromError maps a domain error onto its HTTP status and error code.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrForbidden):
		Error(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, apperr.ErrNotFound):
		Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, apperr.ErrInvalidInput):
		Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, apperr.ErrConflict):
		Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		fields := map[string]any{"request_id": c.GetString("requestId"), "error": err.Error()}
		telemetry.Error("http.internal_error", fields)
		Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
	}
}
