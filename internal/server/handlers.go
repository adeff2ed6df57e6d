package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/teemow/workmate/internal/agent"
	"github.com/teemow/workmate/internal/credential"
	"github.com/teemow/workmate/internal/google"
	"github.com/teemow/workmate/internal/instrumentation"
	"github.com/teemow/workmate/internal/logging"
	"github.com/teemow/workmate/internal/session"
)

// MaxMessageLength bounds a single chat message in bytes.
const MaxMessageLength = 8 << 10

// Percent-encoding expands each byte to at most three.
const maxFormBytes = MaxMessageLength*3 + 1<<10

// truncateMessage cuts text to at most n bytes on a rune boundary and
// replaces invalid UTF-8 sequences.
func truncateMessage(text string, n int) string {
	if len(text) > n {
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		text = text[:n]
	}
	return strings.ToValidUTF8(text, "\uFFFD")
}

func (s *ChatServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		s.fail(w, r, "session", err)
		return
	}

	_, loggedIn := sess.Credentials.Get(r.Context())
	data := pageData{
		LoggedIn: loggedIn,
		UserName: sess.UserName(),
		Banner:   bannerFor(r),
		Turns:    sess.Transcript(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderChat(w, data); err != nil {
		s.cfg.Logger.Error("failed to render chat page", logging.Session(sess.ID), logging.Err(err))
	}
}

func (s *ChatServer) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(r.PostForm.Get("message"))
	text = truncateMessage(text, MaxMessageLength)

	sess, err := s.session(w, r)
	if err != nil {
		s.fail(w, r, "session", err)
		return
	}
	if text == "" {
		redirectHome(w, r, "")
		return
	}

	ctx := r.Context()
	logger := logging.WithOperation(s.cfg.Logger, "chat.turn").With(logging.Session(sess.ID))

	unlock := sess.LockTurn()
	defer unlock()

	history := sess.Transcript()
	userTurn := session.Turn{Role: session.RoleUser, Text: text, At: s.cfg.Now()}
	sess.Append(userTurn)
	s.archive(r, sess.ID, userTurn)

	reply, err := s.cfg.Agent.Run(ctx, agent.Input{
		SessionID:   sess.ID,
		Credentials: sess.Credentials,
		History:     history,
		Text:        text,
		UserName:    sess.UserName(),
		UserEmail:   sess.UserEmail(),
		Services:    s.cfg.Services,
	})
	if err != nil {
		logger.Error("turn failed", logging.Err(err))
		redirectHome(w, r, "turn")
		return
	}

	assistantTurn := session.Turn{Role: session.RoleAssistant, Text: reply, At: s.cfg.Now()}
	sess.Append(assistantTurn)
	s.archive(r, sess.ID, assistantTurn)

	redirectHome(w, r, "")
}

func (s *ChatServer) archive(r *http.Request, sessionID string, t session.Turn) {
	if s.cfg.Archive == nil {
		return
	}
	if err := s.cfg.Archive.Append(r.Context(), sessionID, string(t.Role), t.Text, t.At); err != nil {
		s.cfg.Logger.Warn("failed to archive turn", logging.Session(sessionID), logging.Err(err))
	}
}

func (s *ChatServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		s.fail(w, r, "session", err)
		return
	}

	state, err := newState()
	if err != nil {
		s.fail(w, r, "login", err)
		return
	}
	sess.SetOAuthState(state)

	http.Redirect(w, r, google.AuthURL(s.cfg.OAuth, state), http.StatusFound)
}

func (s *ChatServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.session(w, r)
	if err != nil {
		s.fail(w, r, "session", err)
		return
	}
	logger := logging.WithOperation(s.cfg.Logger, "oauth.callback").With(logging.Session(sess.ID))

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		s.cfg.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		logger.Info("consent denied", slog.String("reason", e))
		redirectHome(w, r, "login")
		return
	}
	if !sess.ConsumeOAuthState(q.Get("state")) {
		s.cfg.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		logger.Warn("oauth state mismatch")
		redirectHome(w, r, "login")
		return
	}

	tok, err := google.Exchange(ctx, s.cfg.OAuth, q.Get("code"))
	if err != nil {
		s.cfg.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		logger.Warn("code exchange failed", logging.Err(err))
		redirectHome(w, r, "login")
		return
	}
	if err := sess.Credentials.Set(ctx, tok); err != nil {
		s.cfg.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		logger.Warn("failed to store credential", logging.Err(err))
		redirectHome(w, r, "login")
		return
	}
	s.cfg.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)

	info, err := s.cfg.UserInfo(ctx, sess.Credentials.TokenSource(ctx))
	if err != nil {
		logger.Warn("userinfo lookup failed, using default display name", logging.Err(err))
		info = google.UserInfo{}
	}
	sess.SetUser(info)
	logger.Info("signed in", logging.Domain(info.Email))

	redirectHome(w, r, "")
}

func (s *ChatServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if err := s.cfg.Sessions.Logout(r.Context(), c.Value); err != nil && !errors.Is(err, session.ErrNotFound) {
			s.fail(w, r, "logout", err)
			return
		}
	}
	redirectHome(w, r, "")
}

// fail logs err and renders the failure banner.
func (s *ChatServer) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, credential.ErrAuthentication) {
		redirectHome(w, r, "login")
		return
	}
	s.cfg.Logger.Error("request failed", logging.Operation(op), slog.String("path", r.URL.Path), logging.Err(err))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_ = renderChat(w, pageData{Banner: bannerInternal})
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
