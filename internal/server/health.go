package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Health status constants for health check responses.
const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusDisabled     = "disabled"
)

// HealthChecker provides the health endpoints.
type HealthChecker struct {
	// ready indicates whether the server is ready to receive traffic
	ready atomic.Bool
	// serverContext provides access to dependencies for health checks
	serverContext *ServerContext
	// startTime tracks when the server started
	startTime time.Time
	now       func() time.Time
}

// NewHealthChecker creates a new HealthChecker.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
		now:           time.Now,
	}
	// Server starts as ready by default
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// isServerShuttingDown returns false if serverContext is nil (safe for testing).
func (h *HealthChecker) isServerShuttingDown() bool {
	return h.serverContext != nil && h.serverContext.IsShutdown()
}

// StatusResponse is the /health body.
type StatusResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HealthResponse represents the JSON response for probe endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse provides comprehensive health information.
type DetailedHealthResponse struct {
	Status       string            `json:"status"`
	Uptime       string            `json:"uptime"`
	Integrations map[string]string `json:"integrations"`
}

// Status handles /health.
func (h *HealthChecker) Status(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Status:    healthStatusOK,
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
	})
}

// Liveness handles /healthz. It only reports that the process is running.
func (h *HealthChecker) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: healthStatusOK})
}

// Readiness handles /readyz.
func (h *HealthChecker) Readiness(c *gin.Context) {
	checks := make(map[string]string)
	allOk := true

	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		allOk = false
	} else {
		checks["ready"] = healthStatusOK
	}

	if h.isServerShuttingDown() {
		checks["shutdown"] = healthStatusShuttingDown
		allOk = false
	} else {
		checks["shutdown"] = healthStatusOK
	}

	response := HealthResponse{Checks: checks}
	if allOk {
		response.Status = healthStatusOK
		c.JSON(http.StatusOK, response)
		return
	}
	response.Status = healthStatusNotReady
	c.JSON(http.StatusServiceUnavailable, response)
}

// Detailed handles /healthz/detailed and reports which integrations are configured.
func (h *HealthChecker) Detailed(c *gin.Context) {
	response := DetailedHealthResponse{
		Status:       healthStatusOK,
		Uptime:       time.Since(h.startTime).Truncate(time.Second).String(),
		Integrations: h.integrations(),
	}

	status := http.StatusOK
	if !h.ready.Load() {
		response.Status = healthStatusNotReady
		status = http.StatusServiceUnavailable
	} else if h.isServerShuttingDown() {
		response.Status = healthStatusShuttingDown
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}

func (h *HealthChecker) integrations() map[string]string {
	integrations := map[string]string{
		"calendar": healthStatusDisabled,
		"speech":   healthStatusDisabled,
		"oauth":    healthStatusDisabled,
	}
	if h.serverContext == nil {
		return integrations
	}
	if h.serverContext.Calendar() != nil {
		integrations["calendar"] = healthStatusOK
	}
	if h.serverContext.Speech() != nil {
		integrations["speech"] = healthStatusOK
	}
	if h.serverContext.Credentials().Configured() {
		integrations["oauth"] = healthStatusOK
	}
	return integrations
}

// RegisterHealthEndpoints registers the health routes on r.
func (h *HealthChecker) RegisterHealthEndpoints(r gin.IRoutes) {
	r.GET("/health", h.Status)
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
	r.GET("/healthz/detailed", h.Detailed)
}
