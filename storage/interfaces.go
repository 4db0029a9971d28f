package storage

import (
	"context"

	"github.com/poiesic/sluice/core"
)

// MarkerStore persists per-file idempotence markers.
// A marker is the single source of truth for "already processed".
type MarkerStore interface {
	// Get returns the marker for path.
	// Returns ErrNotFound if the file has never been marked.
	Get(ctx context.Context, path string) (*core.Marker, error)

	// Put atomically writes or replaces the marker for marker.Path.
	Put(ctx context.Context, marker *core.Marker) error

	// Delete removes the marker for path. Missing markers are not an error.
	Delete(ctx context.Context, path string) error

	// List returns all markers for files directly inside dir.
	List(ctx context.Context, dir string) ([]*core.Marker, error)
}

// Lock is a held directory run lock.
type Lock interface {
	// Info returns the lock holder details as last written.
	Info() core.LockInfo

	// Heartbeat refreshes the heartbeat timestamp.
	// Returns ErrLockNotHeld if another owner has taken the lock over.
	Heartbeat(ctx context.Context) error

	// Release removes the lock if it is still owned by this holder.
	Release(ctx context.Context) error
}

// LockStore provides per-directory mutual exclusion between pipeline runs.
type LockStore interface {
	// Acquire takes the run lock for dir.
	// Returns core.ErrDirectoryLocked if a live lock is held by someone else.
	// A stale lock is reclaimed.
	Acquire(ctx context.Context, dir string) (Lock, error)

	// Inspect returns the current lock holder for dir.
	// Returns ErrNotFound if dir is not locked.
	Inspect(ctx context.Context, dir string) (*core.LockInfo, error)

	// Break forcibly removes the lock for dir, whoever holds it.
	Break(ctx context.Context, dir string) error
}

// TextStore persists document chunks.
type TextStore interface {
	// PutChunks upserts the chunks of sourcePath by their deterministic IDs
	// and removes previously stored chunks of the same source whose index is
	// beyond the new sequence.
	PutChunks(ctx context.Context, sourcePath string, chunks []*core.Chunk) error

	// GetChunks returns the stored chunks of sourcePath ordered by index.
	GetChunks(ctx context.Context, sourcePath string) ([]*core.Chunk, error)

	// Close releases resources.
	Close() error
}

// ImageStore persists image artifacts.
type ImageStore interface {
	// PutImage upserts the artifact by its deterministic ID.
	PutImage(ctx context.Context, artifact *core.ImageArtifact) error

	// GetImage returns the artifact with the given ID, including its bytes.
	// Returns ErrNotFound if absent.
	GetImage(ctx context.Context, id string) (*core.ImageArtifact, error)

	// PruneImages removes the stored images embedded in parentDocument whose
	// ID is not in keep. Standalone images are never touched.
	PruneImages(ctx context.Context, parentDocument string, keep []string) error

	// Close releases resources.
	Close() error
}

// RunHistory keeps the summary of the most recent run per directory.
type RunHistory interface {
	// SaveRun stores record as the latest run of record.Dir.
	SaveRun(ctx context.Context, record *core.RunRecord) error

	// LastRun returns the latest run of dir.
	// Returns ErrNotFound if dir has never been processed.
	LastRun(ctx context.Context, dir string) (*core.RunRecord, error)
}
