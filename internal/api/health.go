// Package api provides the HTTP handlers and router for the kbequiv server.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/kbequiv/internal/domain"
)

// HealthHandler serves liveness and readiness endpoints.
type HealthHandler struct {
	oracle        domain.Pinger
	log           *logrus.Logger
	version       string
	backend       string
	schemaVersion int
	startTime     time.Time
}

// NewHealthHandler creates a HealthHandler. oracle may be nil when the backend
// cannot report reachability; schemaVersion is zero for backends without a schema.
func NewHealthHandler(oracle domain.Pinger, log *logrus.Logger, version, backend string, schemaVersion int) *HealthHandler {
	return &HealthHandler{
		oracle:        oracle,
		log:           log,
		version:       version,
		backend:       backend,
		schemaVersion: schemaVersion,
		startTime:     time.Now(),
	}
}

// HealthResponse is the JSON payload of the liveness endpoint.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Backend       string  `json:"backend"`
	SchemaVersion int     `json:"schema_version,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadinessResponse is the JSON payload of the readiness endpoint.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Liveness handles GET /api/v1/health.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       h.version,
		Backend:       h.backend,
		SchemaVersion: h.schemaVersion,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// Readiness handles GET /api/v1/ready by pinging the oracle.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{"oracle": "ok"}

	if h.oracle == nil {
		checks["oracle"] = "unchecked"
		c.JSON(http.StatusOK, ReadinessResponse{Status: "ready", Checks: checks})

		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.oracle.Ping(ctx); err != nil {
		h.log.WithError(err).WithField("backend", h.backend).Error("readiness: oracle ping failed")
		checks["oracle"] = "error"
		c.JSON(http.StatusServiceUnavailable, ReadinessResponse{Status: "not_ready", Checks: checks})

		return
	}

	c.JSON(http.StatusOK, ReadinessResponse{Status: "ready", Checks: checks})
}
