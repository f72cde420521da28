package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/oauth2"

	"ytthumb/internal/storage"
)

// TokenStore caches an OAuth token as JSON on disk.
type TokenStore struct {
	path string
}

// NewTokenStore returns a store backed by path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the token file location.
func (s *TokenStore) Path() string { return s.path }

// Load reads the cached token. A missing file yields ErrNoToken; an unreadable
// or unparseable file yields an error wrapping ErrNoToken so callers can fall
// back to a fresh grant either way.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrNoToken, s.path, err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrNoToken, s.path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: %s holds no tokens", ErrNoToken, s.path)
	}
	return &tok, nil
}

// Save writes tok atomically. The temp file is created 0600 so the token is
// never world readable.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if _, err := storage.WriteFileAtomic(s.path, bytes.NewReader(data)); err != nil {
		return &storage.StorageError{Op: "write", Entity: "token", ID: s.path, Err: err}
	}
	return nil
}
