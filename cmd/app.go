package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/teemow/voicecal/internal/assistant"
	"github.com/teemow/voicecal/internal/calendar"
	"github.com/teemow/voicecal/internal/config"
	"github.com/teemow/voicecal/internal/instrumentation"
	"github.com/teemow/voicecal/internal/llm"
	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/server"
	"github.com/teemow/voicecal/internal/speech"
)

// app holds the collaborators shared by serve and mcp.
type app struct {
	cfg           *config.Config
	logger        *slog.Logger
	provider      *instrumentation.Provider
	dispatcher    *assistant.Dispatcher
	serverContext *server.ServerContext
}

// addConfigFlags registers the flags understood by config.Load.
func addConfigFlags(flags *pflag.FlagSet) *string {
	envFile := flags.String("env-file", config.DefaultEnvFile, "Optional dotenv file loaded before reading the environment")
	flags.String("timezone", "", "IANA time zone for relative dates (default: host zone). Can also use TIMEZONE or TZ env var.")
	flags.Bool("debug", false, "Enable debug logging. Can also use DEBUG env var.")
	flags.String("log-format", logging.FormatText, "Log format: text or json. Can also use LOG_FORMAT env var.")
	flags.String("model", config.DefaultModel, "OpenAI chat model. Can also use OPENAI_MODEL env var.")
	return envFile
}

// loadConfig reads and validates the configuration.
func loadConfig(flags *pflag.FlagSet, envFile string) (*config.Config, error) {
	cfg, err := config.Load(flags, envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newApp builds the gateways, the dispatcher and the server context.
// Logs go to logOut; MCP stdio keeps stdout for the protocol.
func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	logger := slog.New(logging.NewHandler(logOut, cfg.LogFormat, cfg.Debug))
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	metrics := provider.Metrics()

	model, err := llm.NewClient(llm.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	}, llm.WithMetrics(metrics), llm.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	deps := assistant.Deps{
		LLM:      model,
		Location: loc,
		Metrics:  metrics,
		Logger:   logger,
	}
	opts := []server.Option{
		server.WithGoogleCredentials(cfg.GoogleCredentials()),
		server.WithClock(loc, time.Now),
		server.WithMetrics(metrics),
		server.WithAuditLogger(provider.AuditLogger()),
		server.WithLogger(logger),
	}

	// Only assign non-nil clients: a typed nil would defeat the nil checks downstream.
	if cfg.CalendarEnabled() {
		cal, err := calendar.NewClient(ctx, calendar.Config{
			Credentials:  cfg.GoogleCredentials(),
			RefreshToken: cfg.Google.RefreshToken,
			CalendarID:   cfg.Google.CalendarID,
			Timeout:      cfg.Google.Timeout,
		}, calendar.WithMetrics(metrics), calendar.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create Calendar client: %w", err)
		}
		deps.Calendar = cal
		opts = append(opts, server.WithCalendar(cal))
	} else {
		logger.Warn("calendar disabled: GOOGLE_REFRESH_TOKEN is not set, visit /auth/google to obtain one")
	}

	if cfg.SpeechEnabled() {
		tts, err := speech.NewClient(speech.Config{
			APIKey:  cfg.ElevenLabs.APIKey,
			BaseURL: cfg.ElevenLabs.BaseURL,
			VoiceID: cfg.ElevenLabs.VoiceID,
			Timeout: cfg.ElevenLabs.Timeout,
		}, speech.WithMetrics(metrics), speech.WithLogger(logging.NewSlogAdapter(logger)))
		if err != nil {
			return nil, fmt.Errorf("failed to create speech client: %w", err)
		}
		deps.Speech = tts
		opts = append(opts, server.WithSpeech(tts))
	} else {
		logger.Info("speech synthesis disabled: ELEVENLABS_API_KEY is not set")
	}

	dispatcher, err := assistant.New(deps)
	if err != nil {
		return nil, err
	}

	logger.Info("assistant configured",
		logging.Provider(instrumentation.ProviderOpenAI),
		slog.String("model", model.Model()),
		"timezone", loc.String(),
		"calendar", dispatcher.CalendarEnabled(),
		"speech", dispatcher.SpeechEnabled())

	return &app{
		cfg:           cfg,
		logger:        logger,
		provider:      provider,
		dispatcher:    dispatcher,
		serverContext: server.NewServerContext(ctx, dispatcher, opts...),
	}, nil
}

// Close releases the server context and flushes telemetry.
func (a *app) Close(ctx context.Context) {
	if err := a.serverContext.Shutdown(); err != nil {
		a.logger.Error("error during server context shutdown", logging.Err(err))
	}
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Error("error during instrumentation shutdown", logging.Err(err))
	}
}
