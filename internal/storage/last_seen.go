package storage

import (
	"errors"
	"io/fs"
	"os"
	"strings"
)

// LastSeenStore keeps the identity of the most recent commenter in a plain text
// file holding exactly one value.
type LastSeenStore struct {
	path string
}

// NewLastSeenStore returns a store backed by the file at path.
func NewLastSeenStore(path string) *LastSeenStore {
	return &LastSeenStore{path: path}
}

// Path returns the backing file location.
func (s *LastSeenStore) Path() string { return s.path }

// Load returns the stored identity. A missing or blank file yields ErrNotFound;
// any other read failure is returned as a *StorageError so callers can decide
// whether to treat it as "no prior record".
func (s *LastSeenStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", &StorageError{Op: "read", Entity: "last_seen", ID: s.path, Err: err}
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", ErrNotFound
	}
	return id, nil
}

// Save replaces the stored identity atomically.
func (s *LastSeenStore) Save(id string) error {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "\r\n") {
		return &StorageError{Op: "write", Entity: "last_seen", ID: s.path, Err: ErrInvalidInput}
	}
	if _, err := WriteFileAtomic(s.path, strings.NewReader(id)); err != nil {
		return &StorageError{Op: "write", Entity: "last_seen", ID: s.path, Err: err}
	}
	return nil
}
