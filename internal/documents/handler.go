package documents

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ehr-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

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
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.POST("/documents/:id/reextract", h.reextract)
	rg.DELETE("/documents/:id", h.remove)
	rg.GET("/documents/:id/summary", h.summary)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, CodeValidationError, "file is required", nil)
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		respond.Error(c, http.StatusBadRequest, CodeValidationError, "only PDF files are supported", nil)
		return
	}

	cfg := Config{
		UseExternalExtractor: parseFormBool(c.PostForm("use_api")),
		UseLLMExtraction:     parseFormBool(c.PostForm("use_llm")),
	}
	if raw := strings.TrimSpace(c.PostForm("selected_sections")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.SelectedSections); err != nil {
			respond.Error(c, http.StatusBadRequest, CodeInvalidConfig, "selected_sections must be a JSON array of section names", nil)
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, CodeValidationError, "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), fileHeader.Filename, cfg, file)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 20, 100)
	offset := parseIntQuery(c, "offset", 0, 0)

	docs, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, gin.H{
			"documentId":    doc.ID,
			"filename":      doc.FileName,
			"uploadDate":    doc.UploadedAt,
			"status":        doc.Status,
			"elementsCount": doc.ElementCount,
		})
	}

	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)

	doc, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.OK(c, toResponse(doc))
}

type reextractRequest struct {
	SelectedSections []string `json:"selected_sections"`
}

func (h *Handler) reextract(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)

	var req reextractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, CodeValidationError, "invalid request body", nil)
		return
	}

	doc, err := h.Svc.Reextract(c.Request.Context(), id, req.SelectedSections)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Set("statusTransition", StatusCompleted+"->"+StatusProcessing)
	respond.JSON(c, http.StatusAccepted, toResponse(doc))
}

func (h *Handler) remove(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) summary(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)

	text, err := h.Svc.Summary(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="discharge_summary.txt"`)
	c.String(http.StatusOK, text)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, CodeDocumentNotFound, "document not found", nil)
	case errors.Is(err, ErrInvalidConfig):
		respond.Error(c, http.StatusBadRequest, CodeInvalidConfig, err.Error(), nil)
	case errors.Is(err, ErrExtractionInProgress):
		respond.Error(c, http.StatusConflict, CodeExtractionInProgress, "extraction already in progress", nil)
	case errors.Is(err, ErrNoSummary):
		respond.Error(c, http.StatusConflict, CodeValidationError, "discharge summary not available", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, CodeInternalError, "unexpected server error", nil)
	}
}

func parseFormBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}

func parseIntQuery(c *gin.Context, key string, def, max int) int {
	out := def
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			out = parsed
		}
	}
	if out < 0 {
		out = 0
	}
	if max > 0 && out > max {
		out = max
	}
	return out
}
