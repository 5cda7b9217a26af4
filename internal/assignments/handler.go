package assignments

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"annotation-backend/internal/documents"
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
	rg.PUT("/documents/:documentId/assignment", middleware.RequireAdmin(), h.assign)
	rg.POST("/documents/:documentId/claim", h.claim)
}

// assignRequest keeps assignedTo raw so that an explicit null can be told
// apart from a missing field.
type assignRequest struct {
	AssignedTo json.RawMessage `json:"assignedTo"`
}

type assignmentResponse struct {
	DocumentID string  `json:"documentId"`
	AssignedTo *string `json:"assignedTo"`
	Status     string  `json:"status"`
}

func toResponse(doc documents.Document) assignmentResponse {
	return assignmentResponse{
		DocumentID: doc.ID,
		AssignedTo: doc.AssignedTo,
		Status:     doc.Status,
	}
}

func (h *Handler) assign(c *gin.Context) {
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	if len(req.AssignedTo) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "assignedTo is required", nil)
		return
	}
	var target *string
	if !bytes.Equal(bytes.TrimSpace(req.AssignedTo), []byte("null")) {
		var id string
		if err := json.Unmarshal(req.AssignedTo, &id); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "assignedTo must be a user id or null", nil)
			return
		}
		target = &id
	}

	doc, err := h.Svc.Assign(c.Request.Context(), middleware.ActorFromContext(c), documentID, target)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(doc))
}

func (h *Handler) claim(c *gin.Context) {
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)

	doc, err := h.Svc.Claim(c.Request.Context(), middleware.ActorFromContext(c), documentID)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(doc))
}
