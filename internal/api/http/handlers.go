// Package http serves the broker's admin endpoints.
//
// Routes:
//   - GET /health   liveness plus socket path
//   - GET /stats    queue depth/capacity and frame counters as JSON
//   - GET /metrics  Prometheus exposition
//
// The admin server is optional and never touches the message path.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/monitoring"
)

// QueueStats is the read-only view of the broker queue the handlers need
type QueueStats interface {
	Len() int
	Cap() int
}

// Handlers contains all admin HTTP handlers
type Handlers struct {
	socketPath string
	queue      QueueStats
	metrics    *monitoring.Metrics
}

// NewHandlers creates a new handler set
func NewHandlers(socketPath string, queue QueueStats, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		socketPath: socketPath,
		queue:      queue,
		metrics:    metrics,
	}
}

// Health handles liveness checks
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"socket": h.socketPath,
	})
}

// Stats reports the live queue state and counters
func (h *Handlers) Stats(c *gin.Context) {
	snap := h.metrics.Snapshot()
	snap.QueueDepth = int64(h.queue.Len())
	snap.QueueCapacity = int64(h.queue.Cap())

	c.JSON(http.StatusOK, snap)
}

// NewRouter wires the admin routes
func NewRouter(h *Handlers, metrics *monitoring.Metrics, development bool) *gin.Engine {
	if !development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))

	router.GET("/health", h.Health)
	router.GET("/stats", h.Stats)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router
}
