package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teemow/workmate/internal/google"
	"github.com/teemow/workmate/internal/llm"
	"github.com/teemow/workmate/internal/logging"
)

// Defaults.
const (
	DefaultAddr           = ":8501"
	DefaultBaseURL        = "http://localhost:8501"
	DefaultTimeZone       = "Africa/Cairo"
	DefaultMaxRounds      = 8
	DefaultSessionTimeout = 24 * time.Hour
	DefaultTranscriptDSN  = "workmate.db"
	DefaultMetricsAddr    = ":9090"
)

// GoogleConfig holds the OAuth client registered with Google.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	// RedirectURL defaults to BaseURL + /oauth2callback.
	RedirectURL string `yaml:"redirect_url"`
}

// LLMConfig selects the chat model.
type LLMConfig struct {
	// Provider is gemini, openai or anthropic.
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	MaxRetries int    `yaml:"max_retries"`
}

// TranscriptConfig configures the transcript archive.
type TranscriptConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// MetricsConfig holds configuration for the metrics server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Config is the complete workmate configuration.
type Config struct {
	Addr           string           `yaml:"addr"`
	BaseURL        string           `yaml:"base_url"`
	TimeZone       string           `yaml:"timezone"`
	MaxRounds      int              `yaml:"max_rounds"`
	SessionTimeout time.Duration    `yaml:"session_timeout"`
	Google         GoogleConfig     `yaml:"google"`
	LLM            LLMConfig        `yaml:"llm"`
	Transcript     TranscriptConfig `yaml:"transcript"`
	Metrics        MetricsConfig    `yaml:"metrics"`
	Log            LogConfig        `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:           DefaultAddr,
		BaseURL:        DefaultBaseURL,
		TimeZone:       DefaultTimeZone,
		MaxRounds:      DefaultMaxRounds,
		SessionTimeout: DefaultSessionTimeout,
		LLM:            LLMConfig{Provider: llm.ProviderGemini},
		Transcript:     TranscriptConfig{Enabled: true, DSN: DefaultTranscriptDSN},
		Metrics:        MetricsConfig{Enabled: true, Addr: DefaultMetricsAddr},
		Log:            LogConfig{Level: "info", Format: logging.FormatText},
	}
}

// Load returns the defaults overlaid with the YAML file at path and then
// with the environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays non-empty environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	setString(&c.Addr, "WORKMATE_ADDR")
	setString(&c.BaseURL, "WORKMATE_BASE_URL")
	setString(&c.TimeZone, "WORKMATE_TIMEZONE")
	setString(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.Google.RedirectURL, "GOOGLE_REDIRECT_URL")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.Transcript.DSN, "TRANSCRIPT_DSN")
	setString(&c.Metrics.Addr, "METRICS_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Log.File, "LOG_FILE")

	if v := getenv(providerKeyEnv(c.LLM.Provider)); v != "" {
		c.LLM.APIKey = v
	} else if v := getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}

	if v := getenv("WORKMATE_MAX_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WORKMATE_MAX_ROUNDS %q: %w", v, err)
		}
		c.MaxRounds = n
	}
	if v := getenv("WORKMATE_SESSION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid WORKMATE_SESSION_TIMEOUT %q: %w", v, err)
		}
		c.SessionTimeout = d
	}
	if v := getenv("METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid METRICS_ENABLED %q: %w", v, err)
		}
		c.Metrics.Enabled = b
	}
	if v := getenv("TRANSCRIPT_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TRANSCRIPT_ENABLED %q: %w", v, err)
		}
		c.Transcript.Enabled = b
	}
	return nil
}

// providerKeyEnv returns the API key variable of a provider.
func providerKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

// RedirectURL returns the OAuth callback URL.
func (c *Config) RedirectURL() string {
	if c.Google.RedirectURL != "" {
		return c.Google.RedirectURL
	}
	if c.BaseURL == "" {
		return google.DefaultRedirectURL
	}
	return strings.TrimRight(c.BaseURL, "/") + google.CallbackPath
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// LLMOptions converts the model settings for llm.New.
func (c *Config) LLMOptions() llm.Config {
	return llm.Config{
		Provider:   c.LLM.Provider,
		Model:      c.LLM.Model,
		APIKey:     c.LLM.APIKey,
		BaseURL:    c.LLM.BaseURL,
		MaxRetries: c.LLM.MaxRetries,
	}
}

// LoggingOptions converts the log settings for logging.New.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, Format: c.Log.Format, File: c.Log.File}
}

// Validate reports every problem with the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Google.ClientID == "" || c.Google.ClientSecret == "" {
		errs = append(errs, errors.New("google client id and secret are required (GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET)"))
	}
	if !knownProvider(c.LLM.Provider) {
		errs = append(errs, fmt.Errorf("unknown LLM provider %q (supported: %s)", c.LLM.Provider, strings.Join(llm.Providers(), ", ")))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err))
	}
	if c.MaxRounds <= 0 {
		errs = append(errs, fmt.Errorf("max rounds must be positive, got %d", c.MaxRounds))
	}
	if c.SessionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("session timeout must be positive, got %s", c.SessionTimeout))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func knownProvider(p string) bool {
	if p == "" {
		return true
	}
	for _, known := range llm.Providers() {
		if strings.EqualFold(p, known) {
			return true
		}
	}
	return false
}
