package fsstore

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	markerPrefix = "."
	markerSuffix = ".sluice"

	// LockFileName is the name of the per-directory run lock.
	LockFileName = ".sluice.lock"
)

// MarkerPath returns the sidecar marker path for a source file.
func MarkerPath(source string) string {
	return filepath.Join(filepath.Dir(source), markerPrefix+filepath.Base(source)+markerSuffix)
}

// LockPath returns the run lock path for a directory.
func LockPath(dir string) string {
	return filepath.Join(dir, LockFileName)
}

// IsStateFile reports whether name is a marker, lock or temporary file owned by this package.
func IsStateFile(name string) bool {
	if name == LockFileName {
		return true
	}
	if strings.HasPrefix(name, LockFileName+".") {
		return true
	}
	if strings.HasPrefix(name, ".sluice-") && strings.HasSuffix(name, ".tmp") {
		return true
	}
	return strings.HasPrefix(name, markerPrefix) && strings.HasSuffix(name, markerSuffix)
}

// writeFileAtomic replaces path with data via a temporary file and rename.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sluice-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// createExclusive creates path with data, failing if it already exists.
func createExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
