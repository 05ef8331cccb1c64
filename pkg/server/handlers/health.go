// Package handlers implements the gin handlers behind the query API.
package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/metalink"
)

// Build information, set at build time using ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	metalink metalink.Metalink
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(m metalink.Metalink) *HealthHandler {
	return &HealthHandler{metalink: m}
}

// HealthCheck handles GET /health, a basic liveness check.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "metalink",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ReadinessCheck handles GET /ready. It verifies graph store
// connectivity and reports the embedding capability flag: a degraded
// embedding state is a capability, not a failure.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx := c.Request.Context()

	status := http.StatusOK
	checks := gin.H{}

	if h.metalink == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "client not initialized",
		})
		return
	}

	start := time.Now()
	if _, err := h.metalink.Stats(ctx); err != nil {
		checks["graph_store"] = gin.H{"status": "unhealthy", "error": err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		checks["graph_store"] = gin.H{"status": "healthy", "duration": time.Since(start).String()}
	}

	ready := "ready"
	if status != http.StatusOK {
		ready = "not ready"
	}
	c.JSON(status, gin.H{
		"status":              ready,
		"service":             "metalink",
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
		"embedding_available": h.metalink.EmbeddingAvailable(ctx),
		"checks":              checks,
	})
}
