package server

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teemow/voicecal/internal/instrumentation"
	"github.com/teemow/voicecal/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// maxRequestIDLength bounds caller-supplied request ids.
const maxRequestIDLength = 128

// RequestID assigns every request an id, reusing a sane caller-supplied one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// requestIDFrom returns the id assigned by RequestID.
func requestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLog logs one line per request.
func AccessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int(logging.KeyStatus, status),
			slog.Duration(logging.KeyDuration, time.Since(start)),
			slog.String(logging.KeyRequestID, requestIDFrom(c)),
		}
		if err := c.Errors.Last(); err != nil {
			attrs = append(attrs, logging.Err(err.Err))
		}

		switch {
		case status >= 500:
			logger.Error("request failed", attrs...)
		case status >= 400:
			logger.Warn("request rejected", attrs...)
		default:
			logger.Info("request handled", attrs...)
		}
	}
}

// HTTPMetrics records request counts, latency and in-flight requests.
func HTTPMetrics(m *instrumentation.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.IncrementInflight(ctx)
		defer m.DecrementInflight(ctx)

		c.Next()

		m.RecordHTTPRequest(ctx, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// CORS allows browser clients from any origin.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders:   []string{"Content-Length", RequestIDHeader},
		MaxAge:          12 * time.Hour,
	})
}
