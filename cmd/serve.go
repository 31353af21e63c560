package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/voicecal/internal/config"
	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/server"
)

// shutdownTimeout bounds how long in-flight requests may drain.
const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API used by voice front ends.

Routes:
  POST /api/process-command            text in, text out
  POST /api/process-command-enhanced   text in, text and optional MP3 out
  GET  /api/voices                     ElevenLabs voice catalogue
  POST /api/stream-tts                 streamed MP3 synthesis
  POST /api/elevenlabs-webhook         conversational agent webhook
  GET  /auth/google                    Google consent redirect
  GET  /health                         health check

Prometheus metrics are served on a dedicated port (default :9090).`,
	}

	envFile := addConfigFlags(cmd.Flags())
	cmd.Flags().Int("port", config.DefaultPort, "HTTP API port. Can also use PORT env var.")
	cmd.Flags().Bool("metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().String("metrics-addr", config.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags(), *envFile)
		if err != nil {
			return err
		}
		return runServe(cfg)
	}

	return cmd
}

func runServe(cfg *config.Config) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(shutdownCtx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Close(ctx)
	}()

	health := server.NewHealthChecker(a.serverContext)
	apiServer := server.NewAPIServer(cfg.Addr(), server.NewRouter(a.serverContext, health))

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled && a.provider.Enabled() && a.provider.MetricsHandler() != nil {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			InstrumentationProvider: a.provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(shutdownCtx)

	g.Go(func() error {
		return apiServer.Serve(nil)
	})

	if metricsServer != nil {
		g.Go(func() error {
			return metricsServer.Serve(nil)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutdown signal received, stopping servers")
		health.SetReady(false)

		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := apiServer.Shutdown(drainCtx); err != nil {
			errs = append(errs, fmt.Errorf("api server: %w", err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(drainCtx); err != nil {
				errs = append(errs, fmt.Errorf("metrics server: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("server stopped with error", logging.Err(err))
		return err
	}
	a.logger.Info("server stopped")
	return nil
}
