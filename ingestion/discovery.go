package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
)

// FileState describes a discovered file relative to its marker.
type FileState string

const (
	// StateUnmarked means the file has never been processed.
	StateUnmarked FileState = "unmarked"
	// StateMarked means the marker fingerprint matches the file.
	StateMarked FileState = "marked"
	// StateChanged means a marker exists but the file changed since.
	StateChanged FileState = "changed"
)

// DiscoveredFile is one supported file in the target directory.
type DiscoveredFile struct {
	Path        string
	Kind        core.FileKind
	Fingerprint string // empty when the file could not be fingerprinted
	Size        int64
	ModTime     time.Time
	State       FileState
	Marker      *core.Marker // nil when unmarked
}

// Survey lists the supported files directly inside dir, sorted by path, with
// their marker state. Subdirectories and hidden files are ignored, which
// also excludes marker sidecars and the lock file.
func Survey(ctx context.Context, dir string, markers storage.MarkerStore, mode core.FingerprintMode, logger *slog.Logger) ([]*DiscoveredFile, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrDirectoryUnreadable, dir, err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrDirectoryUnreadable, abs, err)
	}

	var files []*DiscoveredFile
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || entry.IsDir() {
			continue
		}
		kind, ok := core.KindFromPath(name)
		if !ok {
			continue
		}

		path := filepath.Join(abs, name)
		file := &DiscoveredFile{Path: path, Kind: kind, State: StateUnmarked}

		info, err := os.Stat(path)
		switch {
		case err != nil:
			logger.Warn("cannot stat file", "path", path, "err", err)
		case info.IsDir():
			continue
		default:
			file.Size = info.Size()
			file.ModTime = info.ModTime()
			fp, err := core.Fingerprint(path, info, mode)
			if err != nil {
				logger.Warn("cannot fingerprint file", "path", path, "err", err)
			}
			file.Fingerprint = fp
		}

		marker, err := markers.Get(ctx, path)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			logger.Warn("cannot read marker, treating file as unprocessed", "path", path, "err", err)
		case marker.Matches(file.Fingerprint):
			file.State = StateMarked
			file.Marker = marker
		default:
			file.State = StateChanged
			file.Marker = marker
		}
		files = append(files, file)
	}
	return files, nil
}

// Discover returns a pending task for every supported file in dir that has
// no marker matching its current fingerprint.
func Discover(ctx context.Context, dir string, markers storage.MarkerStore, mode core.FingerprintMode, logger *slog.Logger) ([]*core.FileTask, error) {
	files, err := Survey(ctx, dir, markers, mode, logger)
	if err != nil {
		return nil, err
	}
	tasks := make([]*core.FileTask, 0, len(files))
	for _, f := range files {
		if f.State == StateMarked {
			continue
		}
		task := core.NewFileTask(f.Path, f.Kind)
		task.Fingerprint = f.Fingerprint
		task.Size = f.Size
		task.ModTime = f.ModTime
		tasks = append(tasks, task)
	}
	return tasks, nil
}
