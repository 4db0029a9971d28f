// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package postgres implements storage.TextStore and storage.ImageStore on
// PostgreSQL through a pgx connection pool.
//
// Rows are keyed by the deterministic chunk and image IDs, and every write is
// an INSERT ... ON CONFLICT (id) DO UPDATE, so retried writes overwrite rather
// than duplicate.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

const upsertChunkSQL = `
INSERT INTO sluice_chunks (id, source_path, chunk_index, text, start_offset, end_offset, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (id) DO UPDATE SET
    text = EXCLUDED.text,
    start_offset = EXCLUDED.start_offset,
    end_offset = EXCLUDED.end_offset,
    updated_at = NOW()`

const upsertImageSQL = `
INSERT INTO sluice_images (id, source_path, parent_document, page, ordinal, format, data, metadata, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
ON CONFLICT (id) DO UPDATE SET
    format = EXCLUDED.format,
    data = EXCLUDED.data,
    metadata = EXCLUDED.metadata,
    updated_at = NOW()`

// Store is a PostgreSQL-backed content store.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var (
	_ storage.TextStore  = (*Store)(nil)
	_ storage.ImageStore = (*Store)(nil)
)

// Open connects to databaseURL, verifies connectivity and bootstraps the schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%w: database URL is empty", storage.ErrInvalidConfig)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Store{
		pool:   pool,
		logger: slog.Default().With("component", "postgres-store"),
	}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return s, nil
}

// Close closes the pool. Safe to call more than once.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ensureSchema applies schema.sql unless the current version is recorded.
func (s *Store) ensureSchema(ctx context.Context) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
		  SELECT 1 FROM information_schema.tables
		  WHERE table_name = 'sluice_meta'
		)`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("meta table check failed: %w", err)
	}

	if exists {
		var hasVersion bool
		err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sluice_meta WHERE version = $1)`, schemaVersion).Scan(&hasVersion)
		if err != nil {
			return fmt.Errorf("meta version check failed: %w", err)
		}
		if hasVersion {
			return nil
		}
	}

	s.logger.Info("applying schema", "version", schemaVersion)
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, schemaSQL)
		return err
	})
}

// PutChunks replaces the chunk sequence of sourcePath in one transaction.
func (s *Store) PutChunks(ctx context.Context, sourcePath string, chunks []*core.Chunk) error {
	if err := core.ValidateChunkSequence(sourcePath, chunks); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM sluice_chunks WHERE source_path = $1 AND chunk_index >= $2`,
			sourcePath, len(chunks)); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, c := range chunks {
			batch.Queue(upsertChunkSQL, c.ID, c.SourcePath, c.Index, sanitizeText(c.Text), c.Start, c.End)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// GetChunks returns the chunks of sourcePath ordered by index.
func (s *Store) GetChunks(ctx context.Context, sourcePath string) ([]*core.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, source_path, chunk_index, text, start_offset, end_offset
		FROM sluice_chunks
		WHERE source_path = $1
		ORDER BY chunk_index`, sourcePath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*core.Chunk
	for rows.Next() {
		var c core.Chunk
		if err := rows.Scan(&c.ID, &c.SourcePath, &c.Index, &c.Text, &c.Start, &c.End); err != nil {
			return nil, err
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// PutImage upserts an image row.
func (s *Store) PutImage(ctx context.Context, artifact *core.ImageArtifact) error {
	if err := core.ValidateImageArtifact(artifact); err != nil {
		return err
	}
	metadata, err := storage.MarshalImageMetadata(artifact)
	if err != nil {
		return err
	}

	var parent *string
	if artifact.ParentDocument != "" {
		parent = &artifact.ParentDocument
	}
	_, err = s.pool.Exec(ctx, upsertImageSQL,
		artifact.ID, artifact.SourcePath, parent, artifact.Page, artifact.Ordinal,
		artifact.Format, artifact.Bytes, metadata)
	return err
}

// PruneImages deletes the rows of images embedded in parentDocument whose ID
// is not in keep.
func (s *Store) PruneImages(ctx context.Context, parentDocument string, keep []string) error {
	if keep == nil {
		keep = []string{}
	}
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM sluice_images
		WHERE parent_document = $1 AND NOT (id::text = ANY($2))`, parentDocument, keep)
	if err != nil {
		return err
	}
	if n := tag.RowsAffected(); n > 0 {
		s.logger.Debug("removed stale images", "source", parentDocument, "count", n)
	}
	return nil
}

// GetImage loads an image row with its bytes.
func (s *Store) GetImage(ctx context.Context, id string) (*core.ImageArtifact, error) {
	var data, metadata []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data, metadata FROM sluice_images WHERE id = $1`, id).Scan(&data, &metadata)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	artifact, err := storage.UnmarshalImageMetadata(metadata)
	if err != nil {
		return nil, err
	}
	artifact.Bytes = data
	return artifact, nil
}

// sanitizeText strips NUL bytes, which PostgreSQL text columns reject.
func sanitizeText(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
