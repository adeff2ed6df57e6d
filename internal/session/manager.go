package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/workmate/internal/credential"
	"github.com/teemow/workmate/internal/instrumentation"
	"github.com/teemow/workmate/internal/logging"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

const (
	DefaultTimeout         = 24 * time.Hour
	DefaultCleanupInterval = 10 * time.Minute
)

// Config configures a Manager.
type Config struct {
	// Timeout is the idle time after which a session expires.
	Timeout time.Duration
	// CleanupInterval is how often expired sessions are collected.
	CleanupInterval time.Duration

	// Credentials is the template for each session's credential store.
	Credentials credential.Config

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger

	// OnExpire is called, outside the manager lock, for every session
	// removed by expiry or Remove.
	OnExpire func(*Session)

	// Now overrides time.Now in tests.
	Now func() time.Time
}

// Manager owns all live sessions.
type Manager struct {
	cfg Config

	sessions      map[string]*Session
	mu            sync.RWMutex
	cleanupTicker *time.Ticker
	cleanupDone   chan struct{}
	stopOnce      sync.Once
}

// NewManager creates a Manager and starts its cleanup goroutine.
func NewManager(cfg Config) *Manager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Credentials.Logger == nil {
		cfg.Credentials.Logger = cfg.Logger
	}
	if cfg.Credentials.Metrics == nil {
		cfg.Credentials.Metrics = cfg.Metrics
	}

	m := &Manager{
		cfg:           cfg,
		sessions:      make(map[string]*Session),
		cleanupTicker: time.NewTicker(cfg.CleanupInterval),
		cleanupDone:   make(chan struct{}),
	}

	go m.cleanupLoop()

	return m
}

// Create starts a new session with a random ID.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	s := newSession(id, credential.NewStore(id, m.cfg.Credentials), m.cfg.Now())

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.cfg.Metrics.IncrementActiveSessions(ctx)
	m.cfg.Logger.Debug("Session created", logging.Session(id))
	return s, nil
}

// Get returns the live session id and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	now := m.cfg.Now()
	if now.Sub(s.LastAccess()) > m.cfg.Timeout {
		m.remove(context.Background(), id, "expired")
		return nil, ErrNotFound
	}
	s.touch(now)
	return s, nil
}

// GetOrCreate returns the session id, or a new session when id is unknown.
// created reports whether a new session was started.
func (m *Manager) GetOrCreate(ctx context.Context, id string) (s *Session, created bool, err error) {
	if id != "" {
		if s, err := m.Get(id); err == nil {
			return s, false, nil
		}
	}
	s, err = m.Create(ctx)
	return s, err == nil, err
}

// Logout clears the session's credential and transcript but keeps the
// session itself so the browser can sign in again. The credential is
// dropped at once; the transcript is reset after a running turn ends.
func (m *Manager) Logout(ctx context.Context, id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.Credentials.Clear(ctx)

	unlock := s.LockTurn()
	defer unlock()
	s.reset()
	m.cfg.Logger.Info("Session logged out", logging.Session(id))
	return nil
}

// Remove deletes the session and clears its credential.
func (m *Manager) Remove(ctx context.Context, id string) {
	m.remove(ctx, id, "removed")
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) remove(ctx context.Context, id, reason string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	m.expire(ctx, s)
	m.cfg.Logger.Debug("Session ended", logging.Session(id), slog.String("reason", reason))
}

func (m *Manager) expire(ctx context.Context, s *Session) {
	s.Credentials.Clear(ctx)
	m.cfg.Metrics.DecrementActiveSessions(ctx)
	if m.cfg.OnExpire != nil {
		m.cfg.OnExpire(s)
	}
}

// CleanupExpired removes sessions idle for longer than the timeout and
// returns how many were removed.
func (m *Manager) CleanupExpired(ctx context.Context) int {
	now := m.cfg.Now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if now.Sub(s.LastAccess()) > m.cfg.Timeout {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.expire(ctx, s)
	}
	return len(expired)
}

// cleanupLoop periodically removes expired sessions.
func (m *Manager) cleanupLoop() {
	for {
		select {
		case <-m.cleanupTicker.C:
			if n := m.CleanupExpired(context.Background()); n > 0 {
				m.cfg.Logger.Info("Cleaned up expired sessions", "count", n)
			}
		case <-m.cleanupDone:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.cleanupTicker.Stop()
		close(m.cleanupDone)
	})
}

func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
