package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeChunks(source string, texts ...string) []*core.Chunk {
	chunks := make([]*core.Chunk, len(texts))
	offset := 0
	for i, text := range texts {
		chunks[i] = &core.Chunk{
			ID:         core.ChunkID(source, i),
			SourcePath: source,
			Index:      i,
			Text:       text,
			Start:      offset,
			End:        offset + len(text),
		}
		offset += len(text) + 1
	}
	return chunks
}

func TestTextStore_PutChunksIsIdempotent(t *testing.T) {
	ctx := context.Background()
	textStore, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	chunks := makeChunks("/docs/a.txt", "first chunk", "second chunk")
	require.NoError(t, textStore.PutChunks(ctx, "/docs/a.txt", chunks))
	require.NoError(t, textStore.PutChunks(ctx, "/docs/a.txt", chunks))

	got, err := textStore.GetChunks(ctx, "/docs/a.txt")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first chunk", got[0].Text)
	assert.Equal(t, "second chunk", got[1].Text)
	assert.Equal(t, core.ChunkID("/docs/a.txt", 1), got[1].ID)
}

func TestTextStore_ShrinkingSourceDropsStaleChunks(t *testing.T) {
	ctx := context.Background()
	textStore, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, textStore.PutChunks(ctx, "/docs/a.txt", makeChunks("/docs/a.txt", "a", "b", "c")))
	require.NoError(t, textStore.PutChunks(ctx, "/docs/a.txt", makeChunks("/docs/a.txt", "only")))

	got, err := textStore.GetChunks(ctx, "/docs/a.txt")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "only", got[0].Text)
}

func TestTextStore_SourcesAreIsolated(t *testing.T) {
	ctx := context.Background()
	textStore, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, textStore.PutChunks(ctx, "/docs/a.txt", makeChunks("/docs/a.txt", "a1", "a2")))
	require.NoError(t, textStore.PutChunks(ctx, "/docs/a.txt.bak", makeChunks("/docs/a.txt.bak", "b1")))
	require.NoError(t, textStore.PutChunks(ctx, "/docs/a.txt", makeChunks("/docs/a.txt", "a1")))

	got, err := textStore.GetChunks(ctx, "/docs/a.txt.bak")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTextStore_RejectsBadSequence(t *testing.T) {
	ctx := context.Background()
	textStore, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	chunks := makeChunks("/docs/a.txt", "a", "b")
	chunks[1].Index = 5
	err = textStore.PutChunks(ctx, "/docs/a.txt", chunks)
	assert.ErrorIs(t, err, core.ErrInvalidChunk)
}

func TestImageStore_PutAndGet(t *testing.T) {
	ctx := context.Background()
	_, imageStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	artifact := &core.ImageArtifact{
		ID:         core.ImageID("/docs/photo.jpg", 0, 0),
		Bytes:      []byte{0xff, 0xd8, 0xff},
		Format:     "jpeg",
		SourcePath: "/docs/photo.jpg",
		OCR:        &core.OCRText{Text: "EXIT", Confidence: 0.9},
	}
	require.NoError(t, imageStore.PutImage(ctx, artifact))
	require.NoError(t, imageStore.PutImage(ctx, artifact))

	got, err := imageStore.GetImage(ctx, artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, artifact.Bytes, got.Bytes)
	require.NotNil(t, got.OCR)
	assert.Equal(t, "EXIT", got.OCR.Text)

	count, err := imageStore.(*ImageStore).CountImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "repeated writes must not duplicate entries")

	_, err = imageStore.GetImage(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestImageStore_PruneImages(t *testing.T) {
	ctx := context.Background()
	_, imageStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	embedded := func(parent string, page int) *core.ImageArtifact {
		return &core.ImageArtifact{
			ID:             core.ImageID(parent, page, 0),
			Bytes:          []byte{0x89, 'P', 'N', 'G'},
			Format:         "png",
			SourcePath:     parent,
			ParentDocument: parent,
			Page:           page,
		}
	}
	page1 := embedded("/docs/deck.pdf", 1)
	page2 := embedded("/docs/deck.pdf", 2)
	other := embedded("/docs/other.pdf", 2)
	photo := &core.ImageArtifact{
		ID: core.ImageID("/docs/photo.jpg", 0, 0), Bytes: []byte{0xff}, Format: "jpeg", SourcePath: "/docs/photo.jpg",
	}
	for _, a := range []*core.ImageArtifact{page1, page2, other, photo} {
		require.NoError(t, imageStore.PutImage(ctx, a))
	}

	// The deck lost its second page.
	require.NoError(t, imageStore.PruneImages(ctx, "/docs/deck.pdf", []string{page1.ID}))

	_, err = imageStore.GetImage(ctx, page2.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	count, err := imageStore.(*ImageStore).CountImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, imageStore.PruneImages(ctx, "/docs/deck.pdf", nil))
	_, err = imageStore.GetImage(ctx, page1.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = imageStore.GetImage(ctx, other.ID)
	assert.NoError(t, err)
	_, err = imageStore.GetImage(ctx, photo.ID)
	assert.NoError(t, err)
}

func TestRunHistory(t *testing.T) {
	ctx := context.Background()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	history := NewRunHistory(backend)

	_, err = history.LastRun(ctx, "/docs")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	first := &core.RunRecord{Dir: "/docs", StartedAt: time.Now().UTC(), Succeeded: 1}
	require.NoError(t, history.SaveRun(ctx, first))
	second := &core.RunRecord{Dir: "/docs", StartedAt: time.Now().UTC(), Failed: 2}
	require.NoError(t, history.SaveRun(ctx, second))

	last, err := history.LastRun(ctx, "/docs")
	require.NoError(t, err)
	assert.Equal(t, 2, last.Failed)
	assert.Equal(t, 0, last.Succeeded)
}
