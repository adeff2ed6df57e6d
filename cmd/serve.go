package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/giantswarm/mcp-oauth/storage/memory"
	"github.com/spf13/cobra"

	"github.com/teemow/workmate/internal/agent"
	"github.com/teemow/workmate/internal/config"
	"github.com/teemow/workmate/internal/credential"
	"github.com/teemow/workmate/internal/google"
	"github.com/teemow/workmate/internal/instrumentation"
	"github.com/teemow/workmate/internal/llm"
	"github.com/teemow/workmate/internal/server"
	"github.com/teemow/workmate/internal/session"
	"github.com/teemow/workmate/internal/transcript"
)

// DefaultShutdownTimeout bounds graceful shutdown of the HTTP servers.
const DefaultShutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat assistant",
		Long: `Start the browser chat assistant.

Open the base URL in a browser, sign in with Google and ask about your
calendar, email or files. Each browser session has its own credential and
transcript; nothing is shared between users.

Google OAuth:
  --google-client-id and --google-client-secret flags
  OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars.
  The redirect URL <base-url>/oauth2callback must be registered with the
  OAuth client.

Model:
  --llm-provider gemini (default), openai or anthropic, with the API key in
  GEMINI_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runServe(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, logCloser, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	provider, err := newInstrumentation(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error during instrumentation shutdown", slog.Any("error", err))
		}
	}()
	metrics := provider.Metrics()

	metricsServer, err := startMetricsServer(cfg, provider, logger)
	if err != nil {
		return err
	}

	oauthConfig, err := google.NewOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.RedirectURL())
	if err != nil {
		return err
	}

	var archive server.Archive
	if cfg.Transcript.Enabled {
		store, err := transcript.Open(cfg.Transcript.DSN, logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		archive = store
	}

	model, err := llm.New(cfg.LLMOptions())
	if err != nil {
		return err
	}
	model = llm.WithInstrumentation(model, metrics)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	catalog := newCatalog(cfg, provider, logger)
	assistant := agent.New(model, catalog,
		agent.WithMaxRounds(cfg.MaxRounds),
		agent.WithLocation(loc),
		agent.WithLogger(logger),
		agent.WithMetrics(metrics),
	)

	tokens := memory.New()
	defer tokens.Stop()

	sessions := session.NewManager(session.Config{
		Timeout: cfg.SessionTimeout,
		Credentials: credential.Config{
			OAuth:   oauthConfig,
			Backing: tokens,
		},
		Metrics: metrics,
		Logger:  logger,
	})
	defer sessions.Stop()

	chat, err := server.NewChatServer(server.Config{
		OAuth:         oauthConfig,
		Sessions:      sessions,
		Agent:         assistant,
		Archive:       archive,
		SecureCookies: strings.HasPrefix(cfg.BaseURL, "https://"),
		Metrics:       metrics,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create chat server: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		err := chat.Start(cfg.Addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serverDone <- err
	}()

	logger.Info("workmate ready",
		slog.String("url", cfg.BaseURL),
		slog.String("provider", model.Provider()),
		slog.String("model", cfg.LLM.Model),
		slog.Int("tools", len(catalog.Names())))

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error shutting down metrics server", slog.Any("error", err))
			}
		}
		if err := chat.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		return nil
	}
}

// startMetricsServer starts the Prometheus endpoint when enabled and waits
// until it accepts connections.
func startMetricsServer(cfg *config.Config, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	if !cfg.Metrics.Enabled || !provider.Enabled() {
		return nil, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Metrics.Addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}
