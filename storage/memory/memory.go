// Package memory provides in-memory implementations of the storage
// interfaces. They follow the same atomicity rules as the real backends and
// are intended for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
)

// MarkerStore is an in-memory storage.MarkerStore.
type MarkerStore struct {
	mu      sync.Mutex
	markers map[string]core.Marker

	// PutErr, when set, is returned by Put.
	PutErr error
}

var _ storage.MarkerStore = (*MarkerStore)(nil)

// NewMarkerStore creates an empty marker store.
func NewMarkerStore() *MarkerStore {
	return &MarkerStore{markers: make(map[string]core.Marker)}
}

func (s *MarkerStore) Get(ctx context.Context, path string) (*core.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markers[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &m, nil
}

func (s *MarkerStore) Put(ctx context.Context, marker *core.Marker) error {
	if err := core.ValidateMarker(marker); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.markers[marker.Path] = *marker
	return nil
}

func (s *MarkerStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, path)
	return nil
}

func (s *MarkerStore) List(ctx context.Context, dir string) ([]*core.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*core.Marker
	for path, m := range s.markers {
		if filepath.Dir(path) == filepath.Clean(dir) {
			m := m
			out = append(out, &m)
		}
	}
	slices.SortFunc(out, func(a, b *core.Marker) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return out, nil
}

// Len returns the number of stored markers.
func (s *MarkerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.markers)
}

// LockStore is an in-memory storage.LockStore.
type LockStore struct {
	mu         sync.Mutex
	locks      map[string]core.LockInfo
	staleAfter time.Duration
	now        func() time.Time
}

var _ storage.LockStore = (*LockStore)(nil)

// NewLockStore creates a lock store with the given staleness threshold.
func NewLockStore(staleAfter time.Duration) *LockStore {
	return &LockStore{
		locks:      make(map[string]core.LockInfo),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// SetClock overrides the time source.
func (s *LockStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *LockStore) Acquire(ctx context.Context, dir string) (storage.Lock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if held, ok := s.locks[dir]; ok && !held.Stale(now, s.staleAfter) {
		return nil, fmt.Errorf("%w: %s", core.ErrDirectoryLocked, dir)
	}
	info := core.LockInfo{Owner: uuid.NewString(), StartedAt: now, HeartbeatAt: now}
	s.locks[dir] = info
	return &memLock{store: s, dir: dir, owner: info.Owner}, nil
}

func (s *LockStore) Inspect(ctx context.Context, dir string) (*core.LockInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.locks[dir]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &info, nil
}

func (s *LockStore) Break(ctx context.Context, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, dir)
	return nil
}

// Held reports whether dir is currently locked.
func (s *LockStore) Held(dir string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.locks[dir]
	return ok
}

type memLock struct {
	store *LockStore
	dir   string
	owner string
}

func (l *memLock) Info() core.LockInfo {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return l.store.locks[l.dir]
}

func (l *memLock) Heartbeat(ctx context.Context) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	info, ok := l.store.locks[l.dir]
	if !ok || info.Owner != l.owner {
		return storage.ErrLockNotHeld
	}
	info.HeartbeatAt = l.store.now()
	l.store.locks[l.dir] = info
	return nil
}

func (l *memLock) Release(ctx context.Context) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	info, ok := l.store.locks[l.dir]
	if !ok {
		return nil
	}
	if info.Owner != l.owner {
		return storage.ErrLockNotHeld
	}
	delete(l.store.locks, l.dir)
	return nil
}
