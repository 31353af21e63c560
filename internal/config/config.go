// Package config loads the service configuration from flags, environment
// variables and an optional .env file.
//
// Precedence, highest first: command-line flags, process environment,
// .env file, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teemow/voicecal/internal/google"
	"github.com/teemow/voicecal/internal/logging"
)

// Defaults.
const (
	DefaultPort            = 3000
	DefaultMetricsAddr     = ":9090"
	DefaultModel           = "gpt-4o-mini"
	DefaultCalendarID      = "primary"
	DefaultVoiceID         = "21m00Tcm4TlvDQ8ikWAM"
	DefaultLLMTimeout      = 30 * time.Second
	DefaultCalendarTimeout = 10 * time.Second
	DefaultSpeechTimeout   = 30 * time.Second
	DefaultEnvFile         = ".env"
)

// OpenAIConfig configures the language model provider.
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// GoogleConfig configures the Calendar integration.
type GoogleConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	RedirectURI  string        `mapstructure:"redirect_uri"`
	RefreshToken string        `mapstructure:"refresh_token"`
	CalendarID   string        `mapstructure:"calendar_id"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ElevenLabsConfig configures speech synthesis.
type ElevenLabsConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	VoiceID string        `mapstructure:"voice_id"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MetricsConfig configures the dedicated metrics server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Config is the read-only process configuration.
type Config struct {
	Port       int              `mapstructure:"port"`
	TimeZone   string           `mapstructure:"timezone"`
	Debug      bool             `mapstructure:"debug"`
	LogFormat  string           `mapstructure:"log_format"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Google     GoogleConfig     `mapstructure:"google"`
	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// envBindings maps config keys to the conventional environment variable names.
var envBindings = map[string][]string{
	"port":                 {"PORT"},
	"timezone":             {"TIMEZONE", "TZ"},
	"debug":                {"DEBUG"},
	"log_format":           {"LOG_FORMAT"},
	"openai.api_key":       {"OPENAI_API_KEY"},
	"openai.model":         {"OPENAI_MODEL"},
	"openai.base_url":      {"OPENAI_BASE_URL"},
	"openai.timeout":       {"LLM_TIMEOUT"},
	"google.client_id":     {"GOOGLE_CLIENT_ID"},
	"google.client_secret": {"GOOGLE_CLIENT_SECRET"},
	"google.redirect_uri":  {"GOOGLE_REDIRECT_URI"},
	"google.refresh_token": {"GOOGLE_REFRESH_TOKEN"},
	"google.calendar_id":   {"GOOGLE_CALENDAR_ID"},
	"google.timeout":       {"CALENDAR_TIMEOUT"},
	"elevenlabs.api_key":   {"ELEVENLABS_API_KEY"},
	"elevenlabs.voice_id":  {"ELEVENLABS_VOICE_ID"},
	"elevenlabs.base_url":  {"ELEVENLABS_BASE_URL"},
	"elevenlabs.timeout":   {"SPEECH_TIMEOUT"},
	"metrics.enabled":      {"METRICS_ENABLED"},
	"metrics.addr":         {"METRICS_ADDR"},
}

// flagBindings maps config keys to command-line flag names.
var flagBindings = map[string]string{
	"port":            "port",
	"timezone":        "timezone",
	"debug":           "debug",
	"log_format":      "log-format",
	"openai.model":    "model",
	"metrics.enabled": "metrics-enabled",
	"metrics.addr":    "metrics-addr",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("log_format", logging.FormatText)
	v.SetDefault("openai.model", DefaultModel)
	v.SetDefault("openai.timeout", DefaultLLMTimeout)
	v.SetDefault("google.redirect_uri", fmt.Sprintf("http://localhost:%d/auth/google/callback", DefaultPort))
	v.SetDefault("google.calendar_id", DefaultCalendarID)
	v.SetDefault("google.timeout", DefaultCalendarTimeout)
	v.SetDefault("elevenlabs.voice_id", DefaultVoiceID)
	v.SetDefault("elevenlabs.timeout", DefaultSpeechTimeout)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", DefaultMetricsAddr)
}

// Load reads the configuration. flags may be nil. envFile names an optional
// dotenv file; a missing file is not an error.
func Load(flags *pflag.FlagSet, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if flags != nil {
		for key, name := range flagBindings {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	return &cfg, nil
}

// Validate checks the settings required to serve commands.
func (c *Config) Validate() error {
	var errs []error

	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.OpenAI.Timeout <= 0 || c.Google.Timeout <= 0 || c.ElevenLabs.Timeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.LogFormat != logging.FormatText && c.LogFormat != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("invalid log format %q (supported: text, json)", c.LogFormat))
	}
	if c.CalendarEnabled() && !c.GoogleCredentials().Configured() {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required with GOOGLE_REFRESH_TOKEN"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Addr is the API listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// CalendarEnabled reports whether a refresh token is configured.
func (c *Config) CalendarEnabled() bool {
	return c.Google.RefreshToken != ""
}

// SpeechEnabled reports whether an ElevenLabs key is configured.
func (c *Config) SpeechEnabled() bool {
	return c.ElevenLabs.APIKey != ""
}

// GoogleCredentials returns the OAuth client registration.
func (c *Config) GoogleCredentials() google.Credentials {
	return google.Credentials{
		ClientID:     c.Google.ClientID,
		ClientSecret: c.Google.ClientSecret,
		RedirectURL:  c.Google.RedirectURI,
	}
}

// Location returns the zone relative dates are anchored to. Without an
// explicit setting the host zone is used.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.TimeZone)
	if name == "" {
		return hostLocation(), nil
	}
	// TZ may carry a leading colon.
	loc, err := time.LoadLocation(strings.TrimPrefix(name, ":"))
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", name, err)
	}
	return loc, nil
}

// hostLocation resolves time.Local to its IANA name when /etc/localtime
// links into a zoneinfo tree, so it reports e.g. "Europe/Berlin" instead of "Local".
func hostLocation() *time.Location {
	target, err := filepath.EvalSymlinks("/etc/localtime")
	if err != nil {
		return time.Local
	}
	_, name, ok := strings.Cut(target, "zoneinfo/")
	if !ok || name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}
