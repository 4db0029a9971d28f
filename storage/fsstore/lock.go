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

package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
)

// DefaultStaleAfter is how old a heartbeat may get before a lock is considered abandoned.
const DefaultStaleAfter = 10 * time.Minute

// LockStore implements directory run locks as exclusive lock files.
type LockStore struct {
	staleAfter time.Duration
	now        func() time.Time
	logger     *slog.Logger
	host       string
	pid        int
}

var _ storage.LockStore = (*LockStore)(nil)

// LockOption configures a LockStore.
type LockOption func(*LockStore)

// WithStaleAfter sets the staleness threshold. Non-positive values keep the default.
func WithStaleAfter(d time.Duration) LockOption {
	return func(s *LockStore) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) LockOption {
	return func(s *LockStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) LockOption {
	return func(s *LockStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewLockStore creates a filesystem lock store.
func NewLockStore(opts ...LockOption) *LockStore {
	host, _ := os.Hostname()
	s := &LockStore{
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
		logger:     slog.Default(),
		host:       host,
		pid:        os.Getpid(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "lock-store")
	return s
}

// StaleAfter returns the configured staleness threshold.
func (s *LockStore) StaleAfter() time.Duration {
	return s.staleAfter
}

// Acquire creates the lock file for dir. A stale lock is reclaimed with a warning.
func (s *LockStore) Acquire(ctx context.Context, dir string) (storage.Lock, error) {
	path := LockPath(dir)

	for attempt := 0; attempt < 3; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		now := s.now().UTC()
		info := core.LockInfo{
			Owner:       uuid.NewString(),
			PID:         s.pid,
			Host:        s.host,
			StartedAt:   now,
			HeartbeatAt: now,
		}
		data, err := storage.MarshalLockInfo(&info)
		if err != nil {
			return nil, err
		}

		err = createExclusive(path, data)
		if err == nil {
			s.logger.Debug("lock acquired", "dir", dir, "owner", info.Owner)
			return &fileLock{store: s, path: path, info: info}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
				return nil, fmt.Errorf("%w: %s: %w", core.ErrDirectoryUnreadable, dir, err)
			}
			return nil, fmt.Errorf("create lock %s: %w", path, err)
		}

		holder, err := s.readHolder(path)
		if errors.Is(err, storage.ErrNotFound) {
			// Released between our create and read.
			continue
		}
		if err != nil {
			return nil, err
		}

		if !holder.Stale(s.now(), s.staleAfter) {
			return nil, fmt.Errorf("%w: %s held by pid %d on %s, last heartbeat %s",
				core.ErrDirectoryLocked, dir, holder.PID, holder.Host, holder.HeartbeatAt.Format(time.RFC3339))
		}

		s.logger.Warn("reclaiming stale lock",
			"dir", dir,
			"pid", holder.PID,
			"host", holder.Host,
			"heartbeat", holder.HeartbeatAt,
			"staleAfter", s.staleAfter)
		if err := s.reclaim(path, holder.Owner); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %s: lost race reclaiming stale lock", core.ErrDirectoryLocked, dir)
}

// Inspect returns the lock holder for dir.
func (s *LockStore) Inspect(ctx context.Context, dir string) (*core.LockInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.readHolder(LockPath(dir))
}

// Break removes the lock for dir regardless of owner.
func (s *LockStore) Break(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(LockPath(dir)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s.logger.Warn("lock broken", "dir", dir)
	return nil
}

// readHolder reads the lock file. A file that exists but cannot be decoded
// (for example, mid-creation) is reported with its mtime as heartbeat.
func (s *LockStore) readHolder(path string) (*core.LockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	info, err := storage.UnmarshalLockInfo(data)
	if err == nil {
		return info, nil
	}
	st, statErr := os.Stat(path)
	if statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, statErr
	}
	return &core.LockInfo{StartedAt: st.ModTime(), HeartbeatAt: st.ModTime()}, nil
}

// reclaim moves a stale lock aside. If the file moved aside turns out to be a
// different owner's fresh lock, it is put back and the directory is reported locked.
func (s *LockStore) reclaim(path, staleOwner string) error {
	aside := path + ".stale-" + strconv.FormatInt(s.now().UnixNano(), 10)
	if err := os.Rename(path, aside); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reclaim lock %s: %w", path, err)
	}

	moved, err := s.readHolder(aside)
	if err == nil && moved.Owner != staleOwner {
		// Link fails if someone created a new lock meanwhile; either way the directory is taken.
		if linkErr := os.Link(aside, path); linkErr != nil && !errors.Is(linkErr, fs.ErrExist) {
			s.logger.Error("could not restore lock moved during reclaim", "path", path, "err", linkErr)
		}
		os.Remove(aside)
		return fmt.Errorf("%w: %s: lock changed hands during reclaim", core.ErrDirectoryLocked, path)
	}
	os.Remove(aside)
	return nil
}

// fileLock is a held lock file.
type fileLock struct {
	store *LockStore
	path  string

	mu       sync.Mutex
	info     core.LockInfo
	released bool
}

func (l *fileLock) Info() core.LockInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.info
}

func (l *fileLock) Heartbeat(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if l.released {
		return storage.ErrLockNotHeld
	}
	if err := l.checkOwner(); err != nil {
		return err
	}

	info := l.info
	info.HeartbeatAt = l.store.now().UTC()
	data, err := storage.MarshalLockInfo(&info)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(l.path, data); err != nil {
		return fmt.Errorf("heartbeat %s: %w", l.path, err)
	}
	l.info = info
	return nil
}

func (l *fileLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return nil
	}
	l.released = true

	if err := l.checkOwner(); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	l.store.logger.Debug("lock released", "path", l.path, "owner", l.info.Owner)
	return nil
}

// checkOwner verifies the lock file still carries our owner token. Caller holds mu.
func (l *fileLock) checkOwner() error {
	current, err := l.store.readHolder(l.path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %w", storage.ErrLockNotHeld, err)
		}
		return err
	}
	if current.Owner != l.info.Owner {
		return fmt.Errorf("%w: now owned by pid %d on %s", storage.ErrLockNotHeld, current.PID, current.Host)
	}
	return nil
}
