package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/workmate/internal/agent"
	"github.com/teemow/workmate/internal/google"
	"github.com/teemow/workmate/internal/instrumentation"
	"github.com/teemow/workmate/internal/session"
)

// SessionCookieName holds the opaque session id.
const SessionCookieName = "workmate_session"

// Runner answers one chat turn. *agent.Agent implements it.
type Runner interface {
	Run(ctx context.Context, in agent.Input) (string, error)
}

// Archive persists chat turns. *transcript.Store implements it.
type Archive interface {
	Append(ctx context.Context, sessionID, role, text string, at time.Time) error
}

// UserInfoFunc resolves the signed-in user's profile.
type UserInfoFunc func(ctx context.Context, ts oauth2.TokenSource) (google.UserInfo, error)

// Config configures a ChatServer.
type Config struct {
	OAuth    *oauth2.Config
	Sessions *session.Manager
	Agent    Runner

	// Archive is optional.
	Archive Archive
	// Services overrides how Google clients are bound per turn. Optional.
	Services agent.ServicesFactory
	// UserInfo defaults to the Google userinfo endpoint.
	UserInfo UserInfoFunc

	// SecureCookies marks the session cookie Secure. Enable behind HTTPS.
	SecureCookies bool

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// ChatServer serves the chat UI and the Google sign-in flow.
type ChatServer struct {
	cfg        Config
	health     *HealthChecker
	handler    http.Handler
	httpServer *http.Server
	listenAddr string
}

// NewChatServer validates cfg and builds the route table.
func NewChatServer(cfg Config) (*ChatServer, error) {
	if cfg.OAuth == nil {
		return nil, errors.New("oauth config is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if cfg.Agent == nil {
		return nil, errors.New("agent is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.UserInfo == nil {
		cfg.UserInfo = func(ctx context.Context, ts oauth2.TokenSource) (google.UserInfo, error) {
			return google.FetchUserInfo(ctx, google.ClientOptions(ctx, ts)...)
		}
	}

	s := &ChatServer{
		cfg:    cfg,
		health: NewHealthChecker(cfg.Sessions.Len),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /login", s.handleLogin)
	mux.HandleFunc("GET "+google.CallbackPath, s.handleCallback)
	mux.HandleFunc("POST /logout", s.handleLogout)
	s.health.RegisterHealthEndpoints(mux)

	s.handler = instrument(securityHeaders(mux), cfg.Metrics, cfg.Logger)
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *ChatServer) Handler() http.Handler {
	return s.handler
}

// Health returns the server's health checker.
func (s *ChatServer) Health() *HealthChecker {
	return s.health
}

// Start listens on addr and serves until Shutdown.
func (s *ChatServer) Start(addr string) error {
	return s.StartWithReadySignal(addr, nil)
}

// StartWithReadySignal is Start, closing ready once the listener is bound.
func (s *ChatServer) StartWithReadySignal(addr string, ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listenAddr = ln.Addr().String()

	// No WriteTimeout: a turn may run several model and API calls.
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.cfg.Logger.Info("starting chat server", slog.String("addr", s.listenAddr))
	if ready != nil {
		close(ready)
	}
	return s.httpServer.Serve(ln)
}

// ListenAddr returns the bound address after start.
func (s *ChatServer) ListenAddr() string {
	return s.listenAddr
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *ChatServer) Shutdown(ctx context.Context) error {
	s.health.MarkShuttingDown()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// session returns the caller's session, starting a new one and setting
// the cookie when the cookie is missing or stale.
func (s *ChatServer) session(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	id := ""
	if c, err := r.Cookie(SessionCookieName); err == nil {
		id = c.Value
	}
	sess, created, err := s.cfg.Sessions.GetOrCreate(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.cfg.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess, nil
}

// redirectHome sends the browser back to the chat page, optionally with a
// banner key.
func redirectHome(w http.ResponseWriter, r *http.Request, banner string) {
	target := "/"
	if banner != "" {
		target = "/?error=" + banner
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func bannerFor(r *http.Request) string {
	return banners[strings.TrimSpace(r.URL.Query().Get("error"))]
}
