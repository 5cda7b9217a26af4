package annotations

import (
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
	rg.POST("/annotations/:documentId", h.submit)
	rg.GET("/annotations/:documentId", h.getOwn)
	rg.GET("/annotations/:documentId/all", middleware.RequireAdmin(), h.listAll)
}

func (h *Handler) submit(c *gin.Context) {
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	if req.Evaluation == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "evaluation is required", nil)
		return
	}

	annotation, transition, err := h.Svc.Submit(c.Request.Context(), middleware.ActorFromContext(c), documentID, Input{
		Evaluation:  *req.Evaluation,
		Comments:    req.Comments,
		TimeSpent:   req.TimeSpent,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("statusTransition", transition.String())

	respond.JSON(c, http.StatusOK, submitResponse{
		Message:      "annotation saved",
		AnnotationID: annotation.ID,
	})
}

func (h *Handler) getOwn(c *gin.Context) {
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)

	annotation, found, err := h.Svc.GetOwn(c.Request.Context(), middleware.ActorFromContext(c), documentID)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, toOwnResponse(annotation, found))
}

func (h *Handler) listAll(c *gin.Context) {
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)

	items, err := h.Svc.ListForDocument(c.Request.Context(), middleware.ActorFromContext(c), documentID)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": items})
}
