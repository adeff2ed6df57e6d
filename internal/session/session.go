package session

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/teemow/workmate/internal/credential"
	"github.com/teemow/workmate/internal/google"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one visible transcript entry.
type Turn struct {
	Role Role
	Text string
	At   time.Time
}

// Session is the state of one chat session.
type Session struct {
	ID          string
	Credentials *credential.Store
	Created     time.Time

	// turn serializes agent turns within the session.
	turn sync.Mutex

	mu         sync.RWMutex
	transcript []Turn
	userName   string
	userEmail  string
	oauthState string
	lastAccess time.Time
}

func newSession(id string, creds *credential.Store, now time.Time) *Session {
	return &Session{
		ID:          id,
		Credentials: creds,
		Created:     now,
		lastAccess:  now,
	}
}

// LockTurn blocks until no other turn runs in this session and returns
// the matching unlock function.
func (s *Session) LockTurn() (unlock func()) {
	s.turn.Lock()
	return s.turn.Unlock
}

// Transcript returns a copy of the visible transcript.
func (s *Session) Transcript() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Turn(nil), s.transcript...)
}

// Append adds turns to the transcript.
func (s *Session) Append(turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, turns...)
}

// ClearTranscript drops all visible turns.
func (s *Session) ClearTranscript() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = nil
}

// SetUser records the signed-in user's profile.
func (s *Session) SetUser(info google.UserInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userName = info.Name
	s.userEmail = info.Email
}

// UserName returns the display name used in prompts and email sign-offs.
func (s *Session) UserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return google.UserInfo{Name: s.userName}.DisplayName()
}

// UserEmail returns the signed-in user's address, if known.
func (s *Session) UserEmail() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userEmail
}

// SetOAuthState stores the state parameter of a pending login.
func (s *Session) SetOAuthState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oauthState = state
}

// ConsumeOAuthState reports whether state matches the pending login. The
// pending state is cleared either way.
func (s *Session) ConsumeOAuthState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := s.oauthState
	s.oauthState = ""
	if want == "" || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(state)) == 1
}

// LastAccess returns when the session was last used.
func (s *Session) LastAccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

// reset clears everything tied to the signed-in user.
func (s *Session) reset() {
	s.mu.Lock()
	s.transcript = nil
	s.userName = ""
	s.userEmail = ""
	s.oauthState = ""
	s.mu.Unlock()
}
