package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no token has been saved yet.
var ErrNoToken = errors.New("no Google OAuth token found; run 'workmate login' first")

// DefaultTokenPath returns the location of the token written by 'workmate login'.
func DefaultTokenPath() string {
	return filepath.Join(userCacheDir(), "workmate", "google.token")
}

// TokenFile persists a single OAuth token as JSON with owner-only permissions.
// It backs the CLI modes; the chat server keeps tokens per session in memory.
type TokenFile struct {
	Path string
}

// NewTokenFile returns a TokenFile at path, or at DefaultTokenPath when path is empty.
func NewTokenFile(path string) *TokenFile {
	if path == "" {
		path = DefaultTokenPath()
	}
	return &TokenFile{Path: path}
}

// Exists reports whether a token has been saved.
func (f *TokenFile) Exists() bool {
	_, err := os.Stat(f.Path)
	return err == nil
}

// Load reads the saved token.
func (f *TokenFile) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", f.Path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("invalid token file %s: no tokens", f.Path)
	}
	return &tok, nil
}

// Save writes tok, creating the parent directory when needed.
func (f *TokenFile) Save(tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("token is nil")
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(f.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Remove deletes the saved token. A missing file is not an error.
func (f *TokenFile) Remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// GetToken implements the credential backing store interface. The file
// holds one token, so the key is ignored.
func (f *TokenFile) GetToken(_ context.Context, _ string) (*oauth2.Token, error) {
	return f.Load()
}

// SaveToken persists refreshed tokens back to the file.
func (f *TokenFile) SaveToken(_ context.Context, _ string, tok *oauth2.Token) error {
	return f.Save(tok)
}

// DeleteToken removes the file.
func (f *TokenFile) DeleteToken(_ context.Context, _ string) error {
	return f.Remove()
}
