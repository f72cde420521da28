package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriter_Commit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thumbnail.jpeg")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	w, err := NewAtomicWriter(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("new"))
	require.NoError(t, err)

	// Target is untouched until commit.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(raw))

	require.NoError(t, w.Commit())
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(raw))

	assert.NoError(t, w.Abort(), "abort after commit is a no-op")
	assertNoTempFiles(t, dir)
}

func TestAtomicWriter_Abort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thumbnail.jpeg")

	w, err := NewAtomicWriter(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assertNoTempFiles(t, dir)
	assert.Error(t, w.Commit())
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "photo.jpeg")

	n, err := WriteFileAtomic(path, strings.NewReader("jpegbytes"))
	require.NoError(t, err)
	assert.EqualValues(t, 9, n)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpegbytes", string(raw))
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".ytthumb-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
