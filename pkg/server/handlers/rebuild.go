package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/metalink"
	"github.com/soundprediction/metalink/pkg/server/dto"
)

// RebuildHandler handles pipeline rebuild requests.
type RebuildHandler struct {
	metalink metalink.Metalink
}

// NewRebuildHandler creates a new rebuild handler.
func NewRebuildHandler(m metalink.Metalink) *RebuildHandler {
	return &RebuildHandler{metalink: m}
}

// Rebuild handles POST /api/v1/rebuild. It runs the pipeline
// synchronously and returns the per-scope report; individual scope
// failures are part of the report, not an HTTP error.
func (h *RebuildHandler) Rebuild(c *gin.Context) {
	var req dto.RebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if len(req.Scopes) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "at least one scope is required"})
		return
	}

	report, err := h.metalink.Rebuild(c.Request.Context(), req.Scopes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "rebuild_failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
