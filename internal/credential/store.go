package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/workmate/internal/instrumentation"
	"github.com/teemow/workmate/internal/logging"
)

// ErrAuthentication means no usable credential is available and the user
// has to log in again.
var ErrAuthentication = errors.New("authentication required")

// DefaultExpiryDelta is how long before its expiry a token is considered stale.
const DefaultExpiryDelta = 60 * time.Second

// TokenStore is the subset of the mcp-oauth storage.TokenStore used for mirroring.
type TokenStore interface {
	SaveToken(ctx context.Context, userID string, token *oauth2.Token) error
	GetToken(ctx context.Context, userID string) (*oauth2.Token, error)
}

// tokenDeleter is implemented by stores that support removal.
type tokenDeleter interface {
	DeleteToken(ctx context.Context, userID string) error
}

// Config configures a Store.
type Config struct {
	// OAuth is used to refresh expired tokens. Required for refresh.
	OAuth *oauth2.Config
	// Backing mirrors the token under the store key. Optional.
	Backing TokenStore
	// Metrics records refresh outcomes. Optional.
	Metrics *instrumentation.Metrics
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// ExpiryDelta defaults to DefaultExpiryDelta.
	ExpiryDelta time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Store holds at most one active credential.
type Store struct {
	mu    sync.Mutex
	key   string
	token *oauth2.Token
	cfg   Config

	// cleared stops restoration from the backing store until the next Set.
	cleared bool
}

// NewStore creates an empty Store. key partitions the backing store and is
// usually the session ID.
func NewStore(key string, cfg Config) *Store {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ExpiryDelta <= 0 {
		cfg.ExpiryDelta = DefaultExpiryDelta
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		key: key,
		cfg: cfg,
	}
}

// Key returns the partition key of the store.
func (s *Store) Key() string {
	return s.key
}

// Set replaces the active credential.
func (s *Store) Set(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("credential is nil")
	}
	cp := *tok

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = &cp
	s.cleared = false
	s.mirror(ctx, &cp)
	return nil
}

// Get returns the active credential without validating it.
func (s *Store) Get(ctx context.Context) (*oauth2.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok := s.current(ctx)
	if tok == nil {
		return nil, false
	}
	cp := *tok
	return &cp, true
}

// EnsureValid returns a credential that is valid for at least the expiry
// delta, refreshing it when it is stale. Any failure clears the store and
// returns an error wrapping ErrAuthentication.
func (s *Store) EnsureValid(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok := s.current(ctx)
	if tok == nil {
		return nil, fmt.Errorf("%w: no credential", ErrAuthentication)
	}
	if s.valid(tok) {
		cp := *tok
		return &cp, nil
	}

	logger := logging.WithOperation(s.cfg.Logger, "credential.refresh").With(logging.Session(s.key))

	if tok.RefreshToken == "" || s.cfg.OAuth == nil {
		s.clearLocked(ctx)
		s.cfg.Metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultExpired)
		logger.Info("credential expired without refresh token")
		return nil, fmt.Errorf("%w: credential expired", ErrAuthentication)
	}

	refreshed, err := s.cfg.OAuth.TokenSource(ctx, &oauth2.Token{RefreshToken: tok.RefreshToken}).Token()
	if err != nil {
		s.clearLocked(ctx)
		s.cfg.Metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		logger.Warn("credential refresh failed", logging.Status(logging.StatusError), logging.Err(err))
		return nil, fmt.Errorf("%w: refresh failed: %v", ErrAuthentication, err)
	}

	cp := *refreshed
	if cp.RefreshToken == "" {
		cp.RefreshToken = tok.RefreshToken
	}
	s.token = &cp
	s.mirror(ctx, &cp)
	s.cfg.Metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	logger.Debug("credential refreshed", logging.Status(logging.StatusSuccess))

	out := cp
	return &out, nil
}

// Clear discards the active credential.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx)
}

// TokenSource returns an oauth2.TokenSource backed by EnsureValid.
func (s *Store) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSource{ctx: ctx, store: s}
}

type tokenSource struct {
	ctx   context.Context
	store *Store
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	return ts.store.EnsureValid(ts.ctx)
}

// current returns the in-process token, restoring it from the backing store
// when absent. Callers hold s.mu.
func (s *Store) current(ctx context.Context) *oauth2.Token {
	if s.token != nil {
		return s.token
	}
	if s.cleared || s.cfg.Backing == nil || s.key == "" {
		return nil
	}
	tok, err := s.cfg.Backing.GetToken(ctx, s.key)
	if err != nil || tok == nil || (tok.AccessToken == "" && tok.RefreshToken == "") {
		return nil
	}
	cp := *tok
	s.token = &cp
	return s.token
}

func (s *Store) valid(tok *oauth2.Token) bool {
	if tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return s.cfg.Now().Add(s.cfg.ExpiryDelta).Before(tok.Expiry)
}

func (s *Store) mirror(ctx context.Context, tok *oauth2.Token) {
	if s.cfg.Backing == nil || s.key == "" {
		return
	}
	if err := s.cfg.Backing.SaveToken(ctx, s.key, tok); err != nil {
		s.cfg.Logger.Warn("failed to mirror credential", logging.Session(s.key), logging.Err(err))
	}
}

func (s *Store) clearLocked(ctx context.Context) {
	s.token = nil
	s.cleared = true
	if s.cfg.Backing == nil || s.key == "" {
		return
	}
	if d, ok := s.cfg.Backing.(tokenDeleter); ok {
		if err := d.DeleteToken(ctx, s.key); err != nil {
			s.cfg.Logger.Debug("failed to delete mirrored credential", logging.Session(s.key), logging.Err(err))
		}
	}
}
