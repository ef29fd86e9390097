package search

import (
	"github.com/gin-gonic/gin"

	"ehr-backend/internal/shared/metrics"
	"ehr-backend/internal/shared/server/respond"
)

// Handler wires HTTP search routes to the index.
type Handler struct {
	Index *Index
}

// NewHandler constructs a Handler.
func NewHandler(index *Index) *Handler {
	return &Handler{Index: index}
}

// RegisterRoutes attaches search routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search)
}

func (h *Handler) search(c *gin.Context) {
	metrics.IncSearchQuery()
	matches := h.Index.Search(c.Query("q"))
	respond.OK(c, matches)
}
