package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"annotation-backend/internal/shared/server/middleware"
	"annotation-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.GET("/users", middleware.RequireAdmin(), h.list)
}

// me echoes the caller's identity, enriched with the stored profile when one exists.
func (h *Handler) me(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if actor.UserID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	response := gin.H{
		"userId":   actor.UserID,
		"role":     actor.Role,
		"username": actor.Username,
	}
	if h.Svc != nil {
		user, err := h.Svc.GetByID(c.Request.Context(), actor.UserID)
		switch {
		case err == nil:
			response["username"] = user.Username
			response["email"] = user.Email
			response["fullName"] = user.FullName
			response["isActive"] = user.IsActive
		case errors.Is(err, ErrNotFound):
		default:
			respond.FromError(c, err)
			return
		}
	}
	respond.JSON(c, http.StatusOK, response)
}

func (h *Handler) list(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	experts, err := h.Svc.ListExperts(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": experts})
}
