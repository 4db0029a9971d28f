package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_EmptyURL(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrInvalidConfig)
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "abc", sanitizeText("a\x00b\x00c"))
	assert.Equal(t, "plain", sanitizeText("plain"))
}

func TestSchemaIsIdempotent(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS sluice_chunks")
	assert.Contains(t, schemaSQL, "ON CONFLICT (version) DO NOTHING")
}

// openTestStore connects to SLUICE_TEST_DATABASE_URL or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("SLUICE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SLUICE_TEST_DATABASE_URL not set")
	}
	store, err := Open(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_Integration(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	source := "/integration/" + t.Name() + ".txt"

	chunks := []*core.Chunk{
		{ID: core.ChunkID(source, 0), SourcePath: source, Index: 0, Text: "alpha", End: 5},
		{ID: core.ChunkID(source, 1), SourcePath: source, Index: 1, Text: "beta", Start: 6, End: 10},
	}
	require.NoError(t, store.PutChunks(ctx, source, chunks))
	require.NoError(t, store.PutChunks(ctx, source, chunks))

	got, err := store.GetChunks(ctx, source)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, chunks[1].ID, got[1].ID)

	require.NoError(t, store.PutChunks(ctx, source, chunks[:1]))
	got, err = store.GetChunks(ctx, source)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	image := &core.ImageArtifact{
		ID:             core.ImageID(source, 1, 0),
		Bytes:          []byte{1, 2, 3},
		Format:         "png",
		SourcePath:     source,
		ParentDocument: source,
		Page:           1,
	}
	require.NoError(t, store.PutImage(ctx, image))
	require.NoError(t, store.PutImage(ctx, image))
	loaded, err := store.GetImage(ctx, image.ID)
	require.NoError(t, err)
	assert.Equal(t, image.Bytes, loaded.Bytes)
	assert.Equal(t, 1, loaded.Page)

	second := *image
	second.ID = core.ImageID(source, 2, 0)
	second.Page = 2
	require.NoError(t, store.PutImage(ctx, &second))
	require.NoError(t, store.PruneImages(ctx, source, []string{image.ID}))
	_, err = store.GetImage(ctx, second.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetImage(ctx, image.ID)
	assert.NoError(t, err)
}
