package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
)

// MarkerStore keeps one sidecar marker file per processed source.
type MarkerStore struct {
	logger *slog.Logger
}

var _ storage.MarkerStore = (*MarkerStore)(nil)

// NewMarkerStore creates a filesystem marker store.
func NewMarkerStore(logger *slog.Logger) storage.MarkerStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarkerStore{logger: logger.With("component", "marker-store")}
}

// Get reads the marker for path.
func (s *MarkerStore) Get(ctx context.Context, path string) (*core.Marker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(MarkerPath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return storage.UnmarshalMarker(data)
}

// Put writes the marker atomically, replacing any previous one.
func (s *MarkerStore) Put(ctx context.Context, marker *core.Marker) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateMarker(marker); err != nil {
		return err
	}
	data, err := storage.MarshalMarker(marker)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(MarkerPath(marker.Path), data); err != nil {
		return fmt.Errorf("write marker for %s: %w", marker.Path, err)
	}
	s.logger.Debug("marker written", "path", marker.Path, "fingerprint", marker.Fingerprint)
	return nil
}

// Delete removes the marker for path.
func (s *MarkerStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(MarkerPath(path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List returns every readable marker in dir. Corrupt markers are skipped.
func (s *MarkerStore) List(ctx context.Context, dir string) ([]*core.Marker, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var markers []*core.Marker
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || name == LockFileName ||
			!strings.HasPrefix(name, markerPrefix) || !strings.HasSuffix(name, markerSuffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			s.logger.Warn("unreadable marker", "file", name, "err", err)
			continue
		}
		marker, err := storage.UnmarshalMarker(data)
		if err != nil {
			s.logger.Warn("corrupt marker", "file", name, "err", err)
			continue
		}
		markers = append(markers, marker)
	}
	return markers, nil
}
