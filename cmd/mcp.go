package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/workmate/internal/config"
	"github.com/teemow/workmate/internal/credential"
	"github.com/teemow/workmate/internal/google"
	"github.com/teemow/workmate/internal/instrumentation"
	"github.com/teemow/workmate/internal/tools"
	"github.com/teemow/workmate/internal/tools/common"
)

func newMCPCmd() *cobra.Command {
	var tokenFile string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the Google tools over MCP stdio",
		Long: `Serve the Calendar, Gmail and Drive tools to an MCP client over
standard input/output.

The tools act on the account saved by 'workmate login'. With
GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET set, expired tokens are refreshed
and written back to the token file; without them the token stops working
after about an hour.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if _, err := cfg.Location(); err != nil {
				return fmt.Errorf("invalid time zone %q: %w", cfg.TimeZone, err)
			}
			return runMCP(cmd.Context(), cfg, tokenFile)
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&tokenFile, "token-file", "", "Token file written by 'workmate login' (default: user cache dir)")
	return cmd
}

func runMCP(ctx context.Context, cfg *config.Config, tokenPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, logCloser, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	provider, err := newInstrumentation(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	tokens := google.NewTokenFile(tokenPath)
	if !tokens.Exists() {
		return google.ErrNoToken
	}

	store := credential.NewStore("stdio", credential.Config{
		OAuth:   stdioOAuthConfig(cfg),
		Backing: tokens,
		Metrics: provider.Metrics(),
		Logger:  logger,
	})

	catalog := newCatalog(cfg, provider, logger)
	mcpSrv := mcpserver.NewMCPServer("workmate", version,
		mcpserver.WithToolCapabilities(true),
	)
	catalog.Register(mcpSrv, credentialBinder(store, provider.Metrics()))

	logger.Info("serving MCP over stdio", slog.Int("tools", len(catalog.Names())))
	return runStdioServer(mcpSrv)
}

// stdioOAuthConfig returns the refresh configuration, or nil when no client
// credentials are configured.
func stdioOAuthConfig(cfg *config.Config) *oauth2.Config {
	conf, err := google.NewOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.RedirectURL())
	if err != nil {
		return nil
	}
	return conf
}

// credentialBinder binds Google clients authenticated by store to each
// tool call.
func credentialBinder(store *credential.Store, metrics *instrumentation.Metrics) tools.Binder {
	return func(ctx context.Context) (context.Context, error) {
		if _, err := store.EnsureValid(ctx); err != nil {
			if errors.Is(err, credential.ErrAuthentication) {
				return ctx, fmt.Errorf("%w: run 'workmate login' again", err)
			}
			return ctx, err
		}
		services, err := common.NewServices(ctx, metrics, store.TokenSource(ctx))
		if err != nil {
			return ctx, err
		}
		services.SessionID = store.Key()
		return common.WithServices(ctx, services), nil
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	if err := <-serverDone; err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
