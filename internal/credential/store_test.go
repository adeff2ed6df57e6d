package credential

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giantswarm/mcp-oauth/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type refreshServer struct {
	*httptest.Server
	hits atomic.Int32
}

// newRefreshServer fakes the Google token endpoint. It fails every refresh
// when fail is set and omits the refresh token from successful responses.
func newRefreshServer(t *testing.T, fail bool) *refreshServer {
	t.Helper()
	rs := &refreshServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"fresh-access","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *refreshServer) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: rs.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
	}
}

func expiredToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "stale-access",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Minute),
	}
}

func validToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "good-access",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func TestStore_AbsentCredential(t *testing.T) {
	s := NewStore("session-1", Config{})

	_, ok := s.Get(context.Background())
	assert.False(t, ok)

	_, err := s.EnsureValid(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestStore_SetRejectsNil(t *testing.T) {
	s := NewStore("session-1", Config{})
	assert.Error(t, s.Set(context.Background(), nil))
}

func TestStore_ValidTokenIsNotRefreshed(t *testing.T) {
	rs := newRefreshServer(t, false)
	s := NewStore("session-1", Config{OAuth: rs.oauthConfig()})
	require.NoError(t, s.Set(context.Background(), validToken()))

	tok, err := s.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "good-access", tok.AccessToken)
	assert.Equal(t, int32(0), rs.hits.Load())
}

func TestStore_TokenWithinExpiryDeltaIsRefreshed(t *testing.T) {
	rs := newRefreshServer(t, false)
	s := NewStore("session-1", Config{OAuth: rs.oauthConfig(), ExpiryDelta: 5 * time.Minute})

	tok := validToken()
	tok.Expiry = time.Now().Add(2 * time.Minute)
	require.NoError(t, s.Set(context.Background(), tok))

	got, err := s.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", got.AccessToken)
	assert.Equal(t, int32(1), rs.hits.Load())
}

func TestStore_RefreshSuccess(t *testing.T) {
	rs := newRefreshServer(t, false)
	s := NewStore("session-1", Config{OAuth: rs.oauthConfig()})
	require.NoError(t, s.Set(context.Background(), expiredToken()))

	tok, err := s.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken, "refresh token must survive a refresh response without one")
	assert.True(t, tok.Expiry.After(time.Now()))

	stored, ok := s.Get(context.Background())
	require.True(t, ok)
	assert.Equal(t, "fresh-access", stored.AccessToken)
}

func TestStore_RefreshFailureClears(t *testing.T) {
	rs := newRefreshServer(t, true)
	backing := memory.New()
	defer backing.Stop()

	s := NewStore("session-1", Config{OAuth: rs.oauthConfig(), Backing: backing})
	require.NoError(t, s.Set(context.Background(), expiredToken()))

	_, err := s.EnsureValid(context.Background())
	require.ErrorIs(t, err, ErrAuthentication)

	_, ok := s.Get(context.Background())
	assert.False(t, ok, "a failed refresh must leave the store empty")

	_, err = s.EnsureValid(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Equal(t, int32(1), rs.hits.Load())
}

func TestStore_ExpiredWithoutRefreshToken(t *testing.T) {
	rs := newRefreshServer(t, false)
	s := NewStore("session-1", Config{OAuth: rs.oauthConfig()})

	tok := expiredToken()
	tok.RefreshToken = ""
	require.NoError(t, s.Set(context.Background(), tok))

	_, err := s.EnsureValid(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Equal(t, int32(0), rs.hits.Load())
}

func TestStore_RestoresFromBacking(t *testing.T) {
	backing := memory.New()
	defer backing.Stop()

	first := NewStore("session-1", Config{Backing: backing})
	require.NoError(t, first.Set(context.Background(), validToken()))

	second := NewStore("session-1", Config{Backing: backing})
	tok, ok := second.Get(context.Background())
	require.True(t, ok)
	assert.Equal(t, "good-access", tok.AccessToken)

	other := NewStore("session-2", Config{Backing: backing})
	_, ok = other.Get(context.Background())
	assert.False(t, ok, "credentials must not cross store keys")
}

func TestStore_Clear(t *testing.T) {
	backing := memory.New()
	defer backing.Stop()

	s := NewStore("session-1", Config{Backing: backing})
	require.NoError(t, s.Set(context.Background(), validToken()))

	s.Clear(context.Background())
	_, ok := s.Get(context.Background())
	assert.False(t, ok)

	require.NoError(t, s.Set(context.Background(), validToken()))
	_, ok = s.Get(context.Background())
	assert.True(t, ok)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore("session-1", Config{})
	require.NoError(t, s.Set(context.Background(), validToken()))

	tok, _ := s.Get(context.Background())
	tok.AccessToken = "mutated"

	again, _ := s.Get(context.Background())
	assert.Equal(t, "good-access", again.AccessToken)
}

func TestStore_TokenSource(t *testing.T) {
	rs := newRefreshServer(t, false)
	s := NewStore("session-1", Config{OAuth: rs.oauthConfig()})
	require.NoError(t, s.Set(context.Background(), expiredToken()))

	tok, err := s.TokenSource(context.Background()).Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", tok.AccessToken)

	s.Clear(context.Background())
	_, err = s.TokenSource(context.Background()).Token()
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestStore_ConcurrentEnsureValidRefreshesOnce(t *testing.T) {
	rs := newRefreshServer(t, false)
	s := NewStore("session-1", Config{OAuth: rs.oauthConfig()})
	require.NoError(t, s.Set(context.Background(), expiredToken()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.EnsureValid(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), rs.hits.Load())
}
