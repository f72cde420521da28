package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastSeenStore_LoadMissing(t *testing.T) {
	store := NewLastSeenStore(filepath.Join(t.TempDir(), "last_seen.txt"))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLastSeenStore_LoadBlank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_seen.txt")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))

	_, err := NewLastSeenStore(path).Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLastSeenStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "last_seen.txt")
	store := NewLastSeenStore(path)

	require.NoError(t, store.Save("UC123"))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "UC123", got)

	require.NoError(t, store.Save("UC999"))
	got, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "UC999", got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "UC999", string(raw), "file must hold exactly one identity")
}

func TestLastSeenStore_LoadTrimsNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_seen.txt")
	require.NoError(t, os.WriteFile(path, []byte("UC123\n"), 0644))

	got, err := NewLastSeenStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "UC123", got)
}

func TestLastSeenStore_SaveRejectsInvalid(t *testing.T) {
	store := NewLastSeenStore(filepath.Join(t.TempDir(), "last_seen.txt"))

	for _, id := range []string{"", "   ", "UC1\nUC2"} {
		err := store.Save(id)
		assert.ErrorIs(t, err, ErrInvalidInput, "id %q", id)
	}
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLastSeenStore_LoadUnreadable(t *testing.T) {
	// A directory at the path cannot be read as a file.
	dir := t.TempDir()

	_, err := NewLastSeenStore(dir).Load()
	var storErr *StorageError
	require.True(t, errors.As(err, &storErr), "got %v", err)
	assert.Equal(t, "read", storErr.Op)
	assert.Equal(t, "last_seen", storErr.Entity)
}
