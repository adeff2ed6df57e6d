package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by the commands that run the assistant.
const (
	FlagConfig         = "config"
	FlagAddr           = "addr"
	FlagBaseURL        = "base-url"
	FlagClientID       = "google-client-id"
	FlagClientSecret   = "google-client-secret"
	FlagProvider       = "llm-provider"
	FlagModel          = "llm-model"
	FlagLLMBaseURL     = "llm-base-url"
	FlagTimeZone       = "timezone"
	FlagMaxRounds      = "max-rounds"
	FlagSessionTimeout = "session-timeout"
	FlagTranscriptDSN  = "transcript-dsn"
	FlagMetricsEnabled = "metrics-enabled"
	FlagMetricsAddr    = "metrics-addr"
	FlagLogLevel       = "log-level"
	FlagLogFormat      = "log-format"
	FlagLogFile        = "log-file"
)

// RegisterFlags adds the configuration flags to fs. Flag defaults are only
// documentation: values are applied by ApplyFlags when a flag was set.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagConfig, "", "Path to a YAML config file")
	fs.String(FlagAddr, d.Addr, "HTTP listen address. Can also use WORKMATE_ADDR env var.")
	fs.String(FlagBaseURL, d.BaseURL, "Public base URL used for the OAuth redirect. Can also use WORKMATE_BASE_URL env var.")
	fs.String(FlagClientID, "", "Google OAuth client ID. Can also use GOOGLE_CLIENT_ID env var.")
	fs.String(FlagClientSecret, "", "Google OAuth client secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	fs.String(FlagProvider, d.LLM.Provider, "LLM provider: gemini, openai or anthropic. Can also use LLM_PROVIDER env var.")
	fs.String(FlagModel, "", "Model name (provider default when empty). Can also use LLM_MODEL env var.")
	fs.String(FlagLLMBaseURL, "", "Override the provider API base URL. Can also use LLM_BASE_URL env var.")
	fs.String(FlagTimeZone, d.TimeZone, "Time zone for new events and the prompt clock. Can also use WORKMATE_TIMEZONE env var.")
	fs.Int(FlagMaxRounds, d.MaxRounds, "Maximum model calls per chat turn")
	fs.Duration(FlagSessionTimeout, d.SessionTimeout, "Idle time after which a chat session expires")
	fs.String(FlagTranscriptDSN, d.Transcript.DSN, "Transcript archive DSN (SQLite path or postgres:// URL). Can also use TRANSCRIPT_DSN env var.")
	fs.Bool(FlagMetricsEnabled, d.Metrics.Enabled, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	fs.String(FlagMetricsAddr, d.Metrics.Addr, "Metrics server address. Can also use METRICS_ADDR env var.")
	fs.String(FlagLogLevel, d.Log.Level, "Log level: debug, info, warn or error. Can also use LOG_LEVEL env var.")
	fs.String(FlagLogFormat, d.Log.Format, "Log format: text or json. Can also use LOG_FORMAT env var.")
	fs.String(FlagLogFile, "", "Write logs to a rotated file instead of stderr. Can also use LOG_FILE env var.")
}

// ApplyFlags overlays the flags that were explicitly set.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	strs := map[string]*string{
		FlagAddr:          &c.Addr,
		FlagBaseURL:       &c.BaseURL,
		FlagClientID:      &c.Google.ClientID,
		FlagClientSecret:  &c.Google.ClientSecret,
		FlagProvider:      &c.LLM.Provider,
		FlagModel:         &c.LLM.Model,
		FlagLLMBaseURL:    &c.LLM.BaseURL,
		FlagTimeZone:      &c.TimeZone,
		FlagTranscriptDSN: &c.Transcript.DSN,
		FlagMetricsAddr:   &c.Metrics.Addr,
		FlagLogLevel:      &c.Log.Level,
		FlagLogFormat:     &c.Log.Format,
		FlagLogFile:       &c.Log.File,
	}
	for name, dst := range strs {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if changed(fs, FlagMaxRounds) {
		v, err := fs.GetInt(FlagMaxRounds)
		if err != nil {
			return err
		}
		c.MaxRounds = v
	}
	if changed(fs, FlagSessionTimeout) {
		v, err := fs.GetDuration(FlagSessionTimeout)
		if err != nil {
			return err
		}
		c.SessionTimeout = v
	}
	if changed(fs, FlagMetricsEnabled) {
		v, err := fs.GetBool(FlagMetricsEnabled)
		if err != nil {
			return err
		}
		c.Metrics.Enabled = v
	}
	return nil
}

func changed(fs *pflag.FlagSet, name string) bool {
	return fs.Lookup(name) != nil && fs.Changed(name)
}

// FromFlags loads the file named by --config, applies the environment and
// then the explicitly set flags.
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	path := ""
	if fs.Lookup(FlagConfig) != nil {
		var err error
		if path, err = fs.GetString(FlagConfig); err != nil {
			return nil, err
		}
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return nil, err
	}
	return cfg, nil
}
