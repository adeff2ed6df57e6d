package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/workmate/internal/config"
	"github.com/teemow/workmate/internal/google"
)

// loginTimeout bounds how long 'workmate login' waits for the browser.
const loginTimeout = 5 * time.Minute

func newLoginCmd() *cobra.Command {
	var (
		tokenFile string
		code      string
		logout    bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google and save a token for the mcp command",
		Long: `Sign in with Google and save the token used by 'workmate mcp'.

By default a temporary listener on the redirect URL receives the callback;
open the printed URL in a browser on the same machine. Use --code to
exchange an authorization code obtained elsewhere.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens := google.NewTokenFile(tokenFile)
			if logout {
				if err := tokens.Remove(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", tokens.Path)
				return nil
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runLogin(cmd, cfg, tokens, code)
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&tokenFile, "token-file", "", "Where to save the token (default: user cache dir)")
	cmd.Flags().StringVar(&code, "code", "", "Exchange this authorization code instead of waiting for the browser")
	cmd.Flags().BoolVar(&logout, "logout", false, "Remove the saved token")
	return cmd
}

func runLogin(cmd *cobra.Command, cfg *config.Config, tokens *google.TokenFile, code string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	oauthConfig, err := google.NewOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.RedirectURL())
	if err != nil {
		return err
	}

	if code == "" {
		state, err := randomState()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Open this URL in your browser to sign in:\n\n%s\n\n", google.AuthURL(oauthConfig, state))

		waitCtx, cancel := context.WithTimeout(ctx, loginTimeout)
		defer cancel()
		code, err = waitForCode(waitCtx, oauthConfig.RedirectURL, state)
		if err != nil {
			return err
		}
	}

	tok, err := google.Exchange(ctx, oauthConfig, code)
	if err != nil {
		return err
	}
	if err := tokens.Save(tok); err != nil {
		return err
	}

	info, err := google.FetchUserInfo(ctx, google.ClientOptions(ctx, oauthConfig.TokenSource(ctx, tok))...)
	if err != nil {
		fmt.Fprintf(out, "Token saved to %s\n", tokens.Path)
		return nil
	}
	fmt.Fprintf(out, "Signed in as %s. Token saved to %s\n", info.DisplayName(), tokens.Path)
	return nil
}

// waitForCode serves the redirect URL until Google calls back with a code
// for state.
func waitForCode(ctx context.Context, redirectURL, state string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return "", fmt.Errorf("failed to listen for the OAuth callback on %s: %w", u.Host, err)
	}

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(u.Path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res result
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("sign-in was not completed: %s", q.Get("error"))
		case q.Get("state") != state:
			res.err = errors.New("oauth state mismatch")
		default:
			res.code = q.Get("code")
		}
		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			_, _ = fmt.Fprintln(w, "Signed in. You can close this window.")
		}
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-results:
		return res.code, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("timed out waiting for sign-in: %w", ctx.Err())
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
