package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/dwhelper-go/internal/app"
	"github.com/yourusername/dwhelper-go/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResolveHandler handles resolution requests and history queries
type ResolveHandler struct {
	session       *app.Session
	defaultFolder string
	logger        *zap.Logger
}

// NewResolveHandler creates a new resolve handler
func NewResolveHandler(session *app.Session, defaultFolder string, logger *zap.Logger) *ResolveHandler {
	return &ResolveHandler{
		session:       session,
		defaultFolder: defaultFolder,
		logger:        logger,
	}
}

// ResolveRequest represents a request to resolve and download a URL
type ResolveRequest struct {
	URL    string `json:"url" binding:"required"`
	Folder string `json:"folder,omitempty"`
}

// ResolveResponse carries the recorded resolution and its outcome
type ResolveResponse struct {
	Resolution *domain.Resolution `json:"resolution"`
	Outcome    domain.Outcome     `json:"outcome"`
}

// Resolve handles POST /api/v1/resolve. The request blocks until the file is
// on disk or the chain is exhausted; requests are served one at a time.
func (h *ResolveHandler) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	folder := strings.TrimSpace(req.Folder)
	if folder == "" {
		folder = h.defaultFolder
	}

	resolution := h.session.Process(c.Request.Context(), req.URL, folder)
	outcome := resolution.Outcome()

	status := http.StatusOK
	switch {
	case outcome.Success:
	case outcome.Kind == domain.KindInvalidInput:
		status = http.StatusBadRequest
	case outcome.Kind == domain.KindCancelled:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, ResolveResponse{Resolution: resolution, Outcome: outcome})
}

// ListResolutions handles GET /api/v1/resolutions
func (h *ResolveHandler) ListResolutions(c *gin.Context) {
	status := domain.ResolutionStatus(c.Query("status"))
	if status != "" && !domain.ValidateStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	resolutions, err := h.session.History(status)
	if err != nil {
		h.respondHistoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resolutions": resolutions,
		"count":       len(resolutions),
	})
}

// GetResolution handles GET /api/v1/resolutions/:id
func (h *ResolveHandler) GetResolution(c *gin.Context) {
	resolution, err := h.session.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "resolution not found"})
			return
		}
		h.respondHistoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolution)
}

// GetStats handles GET /api/v1/resolutions/stats
func (h *ResolveHandler) GetStats(c *gin.Context) {
	stats, err := h.session.Stats()
	if err != nil {
		h.respondHistoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *ResolveHandler) respondHistoryError(c *gin.Context, err error) {
	if errors.Is(err, app.ErrHistoryDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("History query failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
