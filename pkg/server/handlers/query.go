package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/metalink"
	"github.com/soundprediction/metalink/pkg/server/dto"
	"github.com/soundprediction/metalink/pkg/types"
)

// QueryHandler handles search and node retrieval requests.
type QueryHandler struct {
	metalink metalink.Metalink
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(m metalink.Metalink) *QueryHandler {
	return &QueryHandler{metalink: m}
}

// Search handles POST /api/v1/search for both free-text and
// seed-entity queries.
func (h *QueryHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	ctx := c.Request.Context()
	cfg := req.SearchConfig()
	if req.SeedID != "" {
		results, err := h.metalink.Similar(ctx, req.SeedID, cfg)
		if err != nil {
			h.queryError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
		return
	}

	results, err := h.metalink.Search(ctx, req.Query, cfg)
	if err != nil {
		h.queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// GetNode handles GET /api/v1/nodes/:id.
func (h *QueryHandler) GetNode(c *gin.Context) {
	node, err := h.metalink.GetNode(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// Similar handles GET /api/v1/nodes/:id/similar.
func (h *QueryHandler) Similar(c *gin.Context) {
	cfg := parseLimitConfig(c)
	results, err := h.metalink.Similar(c.Request.Context(), c.Param("id"), cfg)
	if err != nil {
		h.queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Compare handles GET /api/v1/compare?a=&b=.
func (h *QueryHandler) Compare(c *gin.Context) {
	a, b := c.Query("a"), c.Query("b")
	if a == "" || b == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "a and b are required"})
		return
	}
	got, err := h.metalink.Compare(c.Request.Context(), a, b)
	if err != nil {
		h.queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, got)
}

// Autocomplete handles GET /api/v1/autocomplete?prefix=.
func (h *QueryHandler) Autocomplete(c *gin.Context) {
	prefix := c.Query("prefix")
	if prefix == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "prefix is required"})
		return
	}
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	completions, err := h.metalink.Autocomplete(c.Request.Context(), prefix, limit)
	if err != nil {
		h.queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completions": completions})
}

func (h *QueryHandler) queryError(c *gin.Context, err error) {
	if errors.Is(err, metalink.ErrNodeNotFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "query_failed", Message: err.Error()})
}

func parseLimitConfig(c *gin.Context) *types.SearchConfig {
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return &types.SearchConfig{Limit: parsed}
		}
	}
	return nil
}
