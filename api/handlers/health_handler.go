package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/dwhelper-go/internal/domain"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	chain          []domain.HandlerKind
	historyEnabled bool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(chain []domain.HandlerKind, historyEnabled bool) *HealthHandler {
	return &HealthHandler{
		chain:          chain,
		historyEnabled: historyEnabled,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status   string               `json:"status"`
	Version  string               `json:"version"`
	Handlers []domain.HandlerKind `json:"handlers"`
	History  bool                 `json:"history"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  Version,
		Handlers: h.chain,
		History:  h.historyEnabled,
	})
}
