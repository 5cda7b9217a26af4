package documents

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"annotation-backend/internal/shared/server/middleware"
	"annotation-backend/internal/shared/server/respond"
)

const maxUploadSize = 20 << 20 // 20MB for both parts

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.GET("/documents/search", h.search)
	rg.GET("/documents/:documentId", h.get)
	rg.POST("/documents", middleware.RequireAdmin(), h.create)
	rg.POST("/documents/upload", middleware.RequireAdmin(), h.upload)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset, ok := paging(c)
	if !ok {
		return
	}
	limit = h.Svc.PageSize(limit)
	items, err := h.Svc.List(c.Request.Context(), middleware.ActorFromContext(c), limit, offset)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Paged(c, toListResponse(items), limit, offset)
}

func (h *Handler) search(c *gin.Context) {
	limit, _, ok := paging(c)
	if !ok {
		return
	}
	items, err := h.Svc.Search(c.Request.Context(), middleware.ActorFromContext(c), c.Query("q"), limit)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": toListResponse(items)})
}

func (h *Handler) get(c *gin.Context) {
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)

	detail, err := h.Svc.Get(c.Request.Context(), middleware.ActorFromContext(c), documentID)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toDetailResponse(detail))
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	doc, err := h.Svc.Create(c.Request.Context(), middleware.ActorFromContext(c), Input{
		Title:            req.Title,
		SourceContent:    req.SourceContent,
		GeneratedContent: req.GeneratedContent,
		AssignedTo:       req.AssignedTo,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("documentId", doc.ID)
	respond.Created(c, toResponse(doc))
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "title is required", nil)
		return
	}
	var assignedTo *string
	if v := strings.TrimSpace(c.PostForm("assignedTo")); v != "" {
		assignedTo = &v
	}

	parts := make(map[string]FilePart, 2)
	for _, field := range []string{"source", "generated"} {
		fileHeader, err := c.FormFile(field)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", field+" file is required", nil)
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read "+field+" file", nil)
			return
		}
		defer file.Close()
		parts[field] = FilePart{
			FileName:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Body:        file,
		}
	}

	doc, err := h.Svc.Upload(c.Request.Context(), middleware.ActorFromContext(c), title, assignedTo, parts["source"], parts["generated"])
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("documentId", doc.ID)
	respond.Created(c, toResponse(doc))
}

func paging(c *gin.Context) (int, int, bool) {
	limit := 0
	offset := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be between 1 and 500", nil)
			return 0, 0, false
		}
		limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "offset must be a non-negative integer", nil)
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}
