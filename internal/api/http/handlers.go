package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/webterm/internal/domain/session"
	"github.com/GriffinCanCode/webterm/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webterm/internal/shared/id"
)

// Handlers serves the JSON introspection endpoints
type Handlers struct {
	registry *session.Registry
	metrics  *monitoring.Metrics
}

// NewHandlers creates the introspection handlers
func NewHandlers(registry *session.Registry, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		registry: registry,
		metrics:  metrics,
	}
}

// Health reports liveness and the number of live sessions
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.registry.Len(),
	})
}

// ListSessions lists all live sessions, oldest first
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.registry.List()

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns one live session
func (h *Handlers) GetSession(c *gin.Context) {
	sessionID := id.SessionID(c.Param("id"))
	if !sessionID.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	s, ok := h.registry.Get(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, s.Info())
}

// Stats returns the metrics snapshot as JSON
func (h *Handlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
