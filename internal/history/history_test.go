package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytthumb/internal/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, &pipeline.Report{
		RunID: "run-1", VideoID: "vid", Status: pipeline.StatusUploaded,
		Commenter: "UC123", PhotoURL: "https://yt3.example/a.jpg", PhotoBytes: 42,
		StartedAt: base, FinishedAt: base.Add(2 * time.Second),
	}))
	require.NoError(t, store.Record(ctx, &pipeline.Report{
		RunID: "run-2", VideoID: "vid", Status: pipeline.StatusFailed,
		Commenter: "UC999", Previous: "UC123", FailedStage: pipeline.StageUpload,
		Err:       &pipeline.StageError{Stage: pipeline.StageUpload, Kind: pipeline.KindUpload, Msg: "set thumbnail", Err: errors.New("forbidden")},
		StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + time.Second),
	}))

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	latest := entries[0]
	assert.Equal(t, "run-2", latest.RunID)
	assert.Equal(t, "failed", latest.Status)
	assert.Equal(t, "upload", latest.FailedStage)
	assert.Equal(t, "UC123", latest.Previous)
	assert.Contains(t, latest.Error, "forbidden")
	assert.True(t, latest.StartedAt.Equal(base.Add(time.Hour)))

	first := entries[1]
	assert.Equal(t, "run-1", first.RunID)
	assert.Equal(t, "uploaded", first.Status)
	assert.EqualValues(t, 42, first.PhotoBytes)
	assert.Empty(t, first.Error)
	assert.True(t, first.FinishedAt.Equal(base.Add(2*time.Second)))
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Record(ctx, &pipeline.Report{
			RunID: id, VideoID: "vid", Status: pipeline.StatusNotNew,
			StartedAt: now.Add(time.Duration(i) * time.Minute), FinishedAt: now,
		}))
	}

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].RunID)
	assert.Equal(t, "b", entries[1].RunID)
}

func TestRecordDuplicateRunID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	rep := &pipeline.Report{RunID: "dup", VideoID: "vid", Status: pipeline.StatusNoComments, StartedAt: time.Now(), FinishedAt: time.Now()}

	require.NoError(t, store.Record(ctx, rep))
	assert.Error(t, store.Record(ctx, rep))
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, &pipeline.Report{RunID: "kept", VideoID: "vid", Status: pipeline.StatusUploaded, StartedAt: time.Now(), FinishedAt: time.Now()}))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].RunID)
}
