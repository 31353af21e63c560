package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handlers groups the route handlers around one ServerContext.
type handlers struct {
	sc *ServerContext
}

// NewRouter builds the HTTP API.
func NewRouter(sc *ServerContext, health *HealthChecker) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		RequestID(),
		AccessLog(sc.Logger()),
		HTTPMetrics(sc.Metrics()),
		CORS(),
	)
	r.SetHTMLTemplate(authTemplates)

	if health == nil {
		health = NewHealthChecker(sc)
	}
	health.RegisterHealthEndpoints(r)

	h := &handlers{sc: sc}

	api := r.Group("/api")
	{
		api.POST("/process-command", h.processCommand)
		api.POST("/process-command-enhanced", h.processCommandEnhanced)
		api.GET("/voices", h.listVoices)
		api.POST("/stream-tts", h.streamTTS)
		api.POST("/elevenlabs-webhook", h.elevenLabsWebhook)
	}

	auth := r.Group("/auth")
	{
		auth.GET("/google", h.authRedirect)
		auth.GET("/google/callback", h.authCallback)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: errNotFound, Message: "route not found"})
	})

	return r
}
