package ingestion

import (
	"context"
	"fmt"

	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
)

// Sink writes chunks and image artifacts to the content stores.
// Every store error is reported as core.ErrSinkWriteFailed so the scheduler
// retries it.
type Sink struct {
	text   storage.TextStore
	images storage.ImageStore
}

// NewSink creates a sink over a text store and an image store. They may be
// the same value.
func NewSink(text storage.TextStore, images storage.ImageStore) (*Sink, error) {
	if text == nil {
		return nil, ErrTextStoreRequired
	}
	if images == nil {
		return nil, ErrImageStoreRequired
	}
	return &Sink{text: text, images: images}, nil
}

// WriteChunks replaces the stored chunks of sourcePath.
func (s *Sink) WriteChunks(ctx context.Context, sourcePath string, chunks []*core.Chunk) error {
	if err := core.ValidateChunkSequence(sourcePath, chunks); err != nil {
		return fmt.Errorf("%w: %w", core.ErrSinkWriteFailed, err)
	}
	if err := s.text.PutChunks(ctx, sourcePath, chunks); err != nil {
		return fmt.Errorf("%w: chunks of %s: %w", core.ErrSinkWriteFailed, sourcePath, err)
	}
	return nil
}

// PruneImages removes stored images of parentDocument that the latest
// extraction no longer produced.
func (s *Sink) PruneImages(ctx context.Context, parentDocument string, current []*core.ImageArtifact) error {
	keep := make([]string, len(current))
	for i, artifact := range current {
		keep[i] = artifact.ID
	}
	if err := s.images.PruneImages(ctx, parentDocument, keep); err != nil {
		return fmt.Errorf("%w: stale images of %s: %w", core.ErrSinkWriteFailed, parentDocument, err)
	}
	return nil
}

// WriteImage upserts an image artifact.
func (s *Sink) WriteImage(ctx context.Context, artifact *core.ImageArtifact) error {
	if err := core.ValidateImageArtifact(artifact); err != nil {
		return fmt.Errorf("%w: %w", core.ErrSinkWriteFailed, err)
	}
	if err := s.images.PutImage(ctx, artifact); err != nil {
		return fmt.Errorf("%w: image %s of %s: %w", core.ErrSinkWriteFailed, artifact.ID, artifact.SourcePath, err)
	}
	return nil
}
