package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultReadHeaderTimeout bounds how long a client may take to send headers.
const DefaultReadHeaderTimeout = 10 * time.Second

// APIServer serves the HTTP API.
type APIServer struct {
	httpServer *http.Server
	addr       string
}

// NewAPIServer wraps handler with server-side tracing. There is no write
// timeout because /api/stream-tts responses last as long as the audio.
func NewAPIServer(addr string, handler http.Handler) *APIServer {
	return &APIServer{
		addr: addr,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           otelhttp.NewHandler(handler, "voicecal"),
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			IdleTimeout:       DefaultMetricsIdleTimeout,
		},
	}
}

// Serve listens and blocks until Shutdown. The ready channel, when non-nil,
// is closed once the listener is bound.
func (s *APIServer) Serve(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.addr = ln.Addr().String()
	if ready != nil {
		close(ready)
	}

	slog.Info("starting api server", "addr", s.addr)
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *APIServer) Shutdown(ctx context.Context) error {
	slog.Info("shutting down api server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the listen address.
func (s *APIServer) Addr() string {
	return s.addr
}
