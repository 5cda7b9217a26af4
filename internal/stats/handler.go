package stats

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"annotation-backend/internal/shared/server/middleware"
	"annotation-backend/internal/shared/server/respond"
)

const defaultDays = 30

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/stats")
	g.GET("/overview", h.overview)
	g.GET("/my-stats", h.myStats)
	g.GET("/all-users", middleware.RequireAdmin(), h.allUsers)
	g.GET("/temporal", h.temporal)
	g.GET("/user-activity", middleware.RequireAdmin(), h.userActivity)
	g.GET("/document-completion", middleware.RequireAdmin(), h.documentCompletion)
	g.GET("/approval-analysis", h.approvalAnalysis)
}

func (h *Handler) overview(c *gin.Context) {
	out, err := h.Svc.Overview(c.Request.Context())
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, out)
}

func (h *Handler) myStats(c *gin.Context) {
	out, err := h.Svc.MyStats(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, out)
}

func (h *Handler) allUsers(c *gin.Context) {
	out, err := h.Svc.AllUsers(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": out})
}

func (h *Handler) temporal(c *gin.Context) {
	days, ok := parseDays(c)
	if !ok {
		return
	}
	if days == nil {
		d := defaultDays
		days = &d
	}
	out, err := h.Svc.Temporal(c.Request.Context(), *days)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"days": *days, "items": out})
}

func (h *Handler) userActivity(c *gin.Context) {
	out, err := h.Svc.UserActivity(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": out})
}

func (h *Handler) documentCompletion(c *gin.Context) {
	out, err := h.Svc.DocumentCompletion(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, out)
}

func (h *Handler) approvalAnalysis(c *gin.Context) {
	days, ok := parseDays(c)
	if !ok {
		return
	}
	out, err := h.Svc.ApprovalAnalysis(c.Request.Context(), days)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, out)
}

// parseDays reads the optional days query. Range checks are left to the service.
func parseDays(c *gin.Context) (*int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "days must be an integer", nil)
		return nil, false
	}
	return &n, true
}
