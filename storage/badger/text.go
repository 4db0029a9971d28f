package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
)

// TextStore implements storage.TextStore for BadgerDB.
type TextStore struct {
	backend *Backend
}

var _ storage.TextStore = (*TextStore)(nil)

// NewTextStore creates a new TextStore.
func NewTextStore(backend *Backend) storage.TextStore {
	return &TextStore{backend: backend}
}

// Close is a no-op; the backend is closed by its owner.
func (s *TextStore) Close() error {
	return nil
}

// PutChunks upserts chunks and drops stale chunks of the same source.
func (s *TextStore) PutChunks(ctx context.Context, sourcePath string, chunks []*core.Chunk) error {
	if err := core.ValidateChunkSequence(sourcePath, chunks); err != nil {
		return err
	}

	return s.backend.update(ctx, func(tx *badger.Txn) error {
		// Remove index entries (and their chunks) beyond the new sequence
		stale, err := s.staleChunkKeys(tx, sourcePath, len(chunks))
		if err != nil {
			return err
		}
		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}

		for _, chunk := range chunks {
			if err := tx.Set(makeChunkKey(chunk.ID), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
			if err := tx.Set(makeChunkSourceKey(sourcePath, chunk.Index), []byte(chunk.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetChunks returns the chunks of sourcePath ordered by index.
func (s *TextStore) GetChunks(ctx context.Context, sourcePath string) ([]*core.Chunk, error) {
	var chunks []*core.Chunk

	err := s.backend.view(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkSourceKey(sourcePath)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			item, err := tx.Get(makeChunkKey(string(id)))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				chunks = append(chunks, chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return chunks, err
}

// staleChunkKeys returns index and primary keys of chunks with index >= keep.
func (s *TextStore) staleChunkKeys(tx *badger.Txn, sourcePath string, keep int) ([][]byte, error) {
	var keys [][]byte

	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialChunkSourceKey(sourcePath)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Seek(makeChunkSourceKey(sourcePath, keep)); iter.ValidForPrefix(opts.Prefix); iter.Next() {
		item := iter.Item()
		if indexFromChunkSourceKey(item.Key()) < keep {
			continue
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		keys = append(keys, item.KeyCopy(nil), makeChunkKey(string(id)))
	}
	return keys, nil
}
