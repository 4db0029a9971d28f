package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
)

// ContentStore is an in-memory storage.TextStore and storage.ImageStore.
type ContentStore struct {
	mu     sync.Mutex
	chunks map[string][]*core.Chunk // by source path
	images map[string]*core.ImageArtifact

	chunkWrites int
	imageWrites int

	// FailWrites, when set, is returned by every write.
	FailWrites error
}

var (
	_ storage.TextStore  = (*ContentStore)(nil)
	_ storage.ImageStore = (*ContentStore)(nil)
)

// NewContentStore creates an empty content store.
func NewContentStore() *ContentStore {
	return &ContentStore{
		chunks: make(map[string][]*core.Chunk),
		images: make(map[string]*core.ImageArtifact),
	}
}

func (s *ContentStore) PutChunks(ctx context.Context, sourcePath string, chunks []*core.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunkWrites++
	if s.FailWrites != nil {
		return s.FailWrites
	}
	stored := make([]*core.Chunk, len(chunks))
	for i, c := range chunks {
		c := *c
		stored[i] = &c
	}
	s.chunks[sourcePath] = stored
	return nil
}

func (s *ContentStore) GetChunks(ctx context.Context, sourcePath string) ([]*core.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.Chunk, 0, len(s.chunks[sourcePath]))
	for _, c := range s.chunks[sourcePath] {
		c := *c
		out = append(out, &c)
	}
	return out, nil
}

func (s *ContentStore) PutImage(ctx context.Context, artifact *core.ImageArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageWrites++
	if s.FailWrites != nil {
		return s.FailWrites
	}
	a := *artifact
	s.images[a.ID] = &a
	return nil
}

func (s *ContentStore) GetImage(ctx context.Context, id string) (*core.ImageArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.images[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *ContentStore) PruneImages(ctx context.Context, parentDocument string, keep []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	for id, a := range s.images {
		if a.ParentDocument == parentDocument && !slices.Contains(keep, id) {
			delete(s.images, id)
		}
	}
	return nil
}

func (s *ContentStore) Close() error {
	return nil
}

// ChunkCount returns the number of stored chunks across all sources.
func (s *ContentStore) ChunkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, cs := range s.chunks {
		n += len(cs)
	}
	return n
}

// ImageCount returns the number of stored images.
func (s *ContentStore) ImageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// Writes returns how many write calls were made, successful or not.
func (s *ContentStore) Writes() (chunkWrites, imageWrites int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunkWrites, s.imageWrites
}

// RunHistory is an in-memory storage.RunHistory.
type RunHistory struct {
	mu   sync.Mutex
	runs map[string]core.RunRecord
}

var _ storage.RunHistory = (*RunHistory)(nil)

// NewRunHistory creates an empty run history.
func NewRunHistory() *RunHistory {
	return &RunHistory{runs: make(map[string]core.RunRecord)}
}

func (h *RunHistory) SaveRun(ctx context.Context, record *core.RunRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs[record.Dir] = *record
	return nil
}

func (h *RunHistory) LastRun(ctx context.Context, dir string) (*core.RunRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.runs[dir]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &r, nil
}
