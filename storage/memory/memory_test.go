package memory

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockStoreMutualExclusion(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewLockStore(time.Minute)
	store.SetClock(func() time.Time { return now })

	lock, err := store.Acquire(ctx, "/data")
	require.NoError(t, err)

	_, err = store.Acquire(ctx, "/data")
	assert.ErrorIs(t, err, core.ErrDirectoryLocked)

	_, err = store.Acquire(ctx, "/other")
	require.NoError(t, err, "locks are per directory")

	now = now.Add(2 * time.Minute)
	reclaimed, err := store.Acquire(ctx, "/data")
	require.NoError(t, err, "stale lock must be reclaimable")

	assert.ErrorIs(t, lock.Heartbeat(ctx), storage.ErrLockNotHeld)
	assert.ErrorIs(t, lock.Release(ctx), storage.ErrLockNotHeld)
	require.NoError(t, reclaimed.Release(ctx))
	assert.False(t, store.Held("/data"))
}

func TestContentStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewContentStore()

	chunks := []*core.Chunk{
		{ID: core.ChunkID("/a.txt", 0), SourcePath: "/a.txt", Index: 0, Text: "one"},
		{ID: core.ChunkID("/a.txt", 1), SourcePath: "/a.txt", Index: 1, Text: "two"},
	}
	require.NoError(t, store.PutChunks(ctx, "/a.txt", chunks))
	require.NoError(t, store.PutChunks(ctx, "/a.txt", chunks))
	assert.Equal(t, 2, store.ChunkCount())

	require.NoError(t, store.PutChunks(ctx, "/a.txt", chunks[:1]))
	got, err := store.GetChunks(ctx, "/a.txt")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	writes, _ := store.Writes()
	assert.Equal(t, 3, writes)
}

func TestContentStorePruneImages(t *testing.T) {
	ctx := context.Background()
	store := NewContentStore()

	for _, page := range []int{1, 2} {
		require.NoError(t, store.PutImage(ctx, &core.ImageArtifact{
			ID: core.ImageID("/deck.pdf", page, 0), SourcePath: "/deck.pdf", ParentDocument: "/deck.pdf", Page: page,
		}))
	}
	require.NoError(t, store.PutImage(ctx, &core.ImageArtifact{ID: core.ImageID("/photo.png", 0, 0), SourcePath: "/photo.png"}))

	require.NoError(t, store.PruneImages(ctx, "/deck.pdf", []string{core.ImageID("/deck.pdf", 1, 0)}))
	assert.Equal(t, 2, store.ImageCount())
	_, err := store.GetImage(ctx, core.ImageID("/deck.pdf", 2, 0))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMarkerStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewMarkerStore()
	for _, p := range []string{"/d/b.txt", "/d/a.txt", "/e/c.txt"} {
		require.NoError(t, store.Put(ctx, &core.Marker{Path: p, Fingerprint: "f", ProcessedAt: time.Now()}))
	}
	markers, err := store.List(ctx, "/d")
	require.NoError(t, err)
	require.Len(t, markers, 2)
	assert.Equal(t, "/d/a.txt", markers[0].Path)
}

func TestRunHistory(t *testing.T) {
	ctx := context.Background()
	history := NewRunHistory()

	_, err := history.LastRun(ctx, "/d")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, history.SaveRun(ctx, &core.RunRecord{Dir: "/d", Total: 2}))
	require.NoError(t, history.SaveRun(ctx, &core.RunRecord{Dir: "/d", Total: 3}))
	last, err := history.LastRun(ctx, "/d")
	require.NoError(t, err)
	assert.Equal(t, 3, last.Total)
}
