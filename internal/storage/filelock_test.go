package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLock_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	ctx := context.Background()

	first := NewFileLock(path)
	require.NoError(t, first.Lock(ctx, time.Second))

	second := NewFileLock(path)
	err := second.Lock(ctx, 50*time.Millisecond)
	assert.True(t, errors.Is(err, ErrLockTimeout), "got %v", err)

	require.NoError(t, first.Unlock())
	require.NoError(t, second.Lock(ctx, time.Second))
	require.NoError(t, second.Unlock())
}

func TestFileLock_ContextCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")

	held := NewFileLock(path)
	require.NoError(t, held.Lock(context.Background(), time.Second))
	defer held.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewFileLock(path).Lock(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileLock_UnlockWithoutLock(t *testing.T) {
	l := NewFileLock(filepath.Join(t.TempDir(), "state"))
	assert.NoError(t, l.Unlock())
	assert.Equal(t, l.Path()[len(l.Path())-5:], ".lock")
}
