// internal/interfaces/http/handlers/health.go
package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	checks      map[string]Pinger
	version     string
	environment string
	startedAt   time.Time
}

// NewHealthHandler creates a health handler over the named dependencies
func NewHealthHandler(version, environment string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		checks:      checks,
		version:     version,
		environment: environment,
		startedAt:   time.Now(),
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	services := gin.H{}
	for _, name := range names {
		if err := h.checks[name].Health(ctx); err != nil {
			status = http.StatusServiceUnavailable
			services[name] = "unhealthy"
			continue
		}
		services[name] = "healthy"
	}

	body := gin.H{
		"status":      "healthy",
		"services":    services,
		"timestamp":   time.Now().UTC(),
		"version":     h.version,
		"environment": h.environment,
	}
	if status != http.StatusOK {
		body["status"] = "unhealthy"
	}
	c.JSON(status, body)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	})
}
