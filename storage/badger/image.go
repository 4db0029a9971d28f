package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
)

// ImageStore implements storage.ImageStore for BadgerDB.
// Bytes are stored inline with the metadata.
type ImageStore struct {
	backend *Backend
}

var _ storage.ImageStore = (*ImageStore)(nil)

// NewImageStore creates a new ImageStore.
func NewImageStore(backend *Backend) storage.ImageStore {
	return &ImageStore{backend: backend}
}

// Close is a no-op; the backend is closed by its owner.
func (s *ImageStore) Close() error {
	return nil
}

// PutImage upserts an artifact by ID.
func (s *ImageStore) PutImage(ctx context.Context, artifact *core.ImageArtifact) error {
	if err := core.ValidateImageArtifact(artifact); err != nil {
		return err
	}
	value := storage.MarshalImageArtifact(artifact)
	return s.backend.update(ctx, func(tx *badger.Txn) error {
		if err := tx.Set(makeImageKey(artifact.ID), value); err != nil {
			return err
		}
		if artifact.ParentDocument == "" {
			return nil
		}
		return tx.Set(makeImageSourceKey(artifact.ParentDocument, artifact.ID), nil)
	})
}

// PruneImages deletes the images of parentDocument that are not in keep,
// together with their index entries.
func (s *ImageStore) PruneImages(ctx context.Context, parentDocument string, keep []string) error {
	return s.backend.update(ctx, func(tx *badger.Txn) error {
		prefix := makePartialImageSourceKey(parentDocument)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var stale []string
		for iter.Rewind(); iter.Valid(); iter.Next() {
			id := string(iter.Item().Key()[len(prefix):])
			if !slices.Contains(keep, id) {
				stale = append(stale, id)
			}
		}
		iter.Close()

		for _, id := range stale {
			if err := tx.Delete(makeImageKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(makeImageSourceKey(parentDocument, id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetImage retrieves an artifact by ID.
func (s *ImageStore) GetImage(ctx context.Context, id string) (*core.ImageArtifact, error) {
	var artifact *core.ImageArtifact
	err := s.backend.view(ctx, func(tx *badger.Txn) error {
		item, err := tx.Get(makeImageKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		// The artifact outlives the transaction.
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		artifact, err = storage.UnmarshalImageArtifact(val)
		return err
	})
	return artifact, err
}

// CountImages returns the number of stored images.
func (s *ImageStore) CountImages(ctx context.Context) (int, error) {
	count := 0
	err := s.backend.view(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(imagePrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	return count, err
}
