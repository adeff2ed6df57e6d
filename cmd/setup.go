package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/teemow/workmate/internal/config"
	"github.com/teemow/workmate/internal/instrumentation"
	"github.com/teemow/workmate/internal/logging"
	"github.com/teemow/workmate/internal/tools"
	"github.com/teemow/workmate/internal/tools/common"
)

// loadConfig resolves the configuration of cmd from its flags, the
// environment and the optional --config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.FromFlags(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupLogging installs the configured logger as the slog default.
func setupLogging(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	logger, closer, err := logging.New(cfg.LoggingOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	slog.SetDefault(logger)
	return logger, closer, nil
}

// newInstrumentation creates the OpenTelemetry provider. The caller shuts
// it down.
func newInstrumentation(ctx context.Context) (*instrumentation.Provider, error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid instrumentation config: %w", err)
	}
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	return provider, nil
}

// newCatalog builds the tool catalog shared by the chat agent and the MCP
// server.
func newCatalog(cfg *config.Config, provider *instrumentation.Provider, logger *slog.Logger) *tools.Catalog {
	auditConfig := instrumentation.DefaultConfig().Audit
	var metrics *instrumentation.Metrics
	if provider != nil {
		metrics = provider.Metrics()
	}
	return tools.NewCatalog(&common.Toolkit{
		Metrics:  metrics,
		Audit:    instrumentation.NewAuditLoggerWithConfig(logger, auditConfig),
		Logger:   logger,
		TimeZone: cfg.TimeZone,
	})
}
