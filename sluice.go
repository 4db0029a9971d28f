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

package sluice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/sluice/ai"
	"github.com/poiesic/sluice/ai/tesseract"
	"github.com/poiesic/sluice/ai/textract"
	"github.com/poiesic/sluice/config"
	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/extract"
	"github.com/poiesic/sluice/ingestion"
	"github.com/poiesic/sluice/storage"
	"github.com/poiesic/sluice/storage/badger"
	"github.com/poiesic/sluice/storage/fsstore"
	"github.com/poiesic/sluice/storage/memory"
	"github.com/poiesic/sluice/storage/postgres"
	s3store "github.com/poiesic/sluice/storage/s3"
)

var (
	// ErrNotLocked is returned by Unlock when the directory has no lock.
	ErrNotLocked = errors.New("directory is not locked")

	// ErrLockActive is returned by Unlock when the lock is live and force is not set.
	ErrLockActive = errors.New("lock is held by a live run")
)

// System wires the content stores, enrichment services and state stores
// selected by a configuration.
type System struct {
	cfg      *config.Config
	markers  storage.MarkerStore
	locks    *fsstore.LockStore
	text     storage.TextStore
	images   storage.ImageStore
	history  storage.RunHistory
	provider ai.Provider
	closers  []func() error
	logger   *slog.Logger
}

// Option configures a System.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	provider ai.Provider
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProvider replaces the enrichment provider built from the configuration.
func WithProvider(provider ai.Provider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// Open validates cfg and connects the configured stores and services.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*System, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &System{
		cfg:     cfg,
		markers: fsstore.NewMarkerStore(o.logger),
		locks:   newLockStore(cfg, o.logger),
		logger:  o.logger,
	}

	if err := s.openStores(ctx); err != nil {
		s.Close()
		return nil, err
	}

	switch {
	case o.provider != nil:
		s.provider = o.provider
	case cfg.Ingest.Enrich:
		provider, err := newProvider(ctx, &cfg.AI)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.provider = provider
		s.closers = append(s.closers, provider.Close)
	}

	return s, nil
}

func newLockStore(cfg *config.Config, logger *slog.Logger) *fsstore.LockStore {
	return fsstore.NewLockStore(
		fsstore.WithStaleAfter(cfg.Ingest.LockStaleAfter),
		fsstore.WithLogger(logger),
	)
}

func (s *System) openStores(ctx context.Context) error {
	switch s.cfg.Store.Backend {
	case config.StoreBadger:
		backend, err := badger.OpenBackend(s.cfg.Store.Path, false, badger.WithBackendLogger(s.logger))
		if err != nil {
			return fmt.Errorf("open badger store: %w", err)
		}
		s.closers = append(s.closers, backend.Close)
		s.text = badger.NewTextStore(backend)
		s.images = badger.NewImageStore(backend)
		s.history = badger.NewRunHistory(backend)
	case config.StorePostgres:
		store, err := postgres.Open(ctx, s.cfg.Store.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres store: %w", err)
		}
		s.closers = append(s.closers, store.Close)
		s.text, s.images = store, store
	case config.StoreS3:
		store, err := s3store.Open(ctx, s.cfg.Store.S3)
		if err != nil {
			return fmt.Errorf("open s3 store: %w", err)
		}
		s.closers = append(s.closers, store.Close)
		s.text, s.images = store, store
	case config.StoreMemory:
		store := memory.NewContentStore()
		s.text, s.images = store, store
		s.history = memory.NewRunHistory()
	default:
		return fmt.Errorf("%w: unknown store %q", config.ErrInvalidConfig, s.cfg.Store.Backend)
	}
	return nil
}

// newProvider composes the classifier and OCR backend named by cfg.
// Services that fail to build release what was already built.
func newProvider(ctx context.Context, cfg *ai.Config) (provider ai.Provider, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		classifier ai.Classifier
		recognizer ai.TextRecognizer
		closers    []func() error
	)
	defer func() {
		if err == nil {
			return
		}
		for _, closeFn := range closers {
			if closeErr := closeFn(); closeErr != nil {
				slog.Default().Warn("error closing partially built provider", "component", "sluice", "err", closeErr)
			}
		}
	}()

	if cfg.UsesLLM() {
		llm, err := newLLMProvider(cfg)
		if err != nil {
			return nil, err
		}
		classifier = llm.Classifier()
		recognizer = llm.TextRecognizer()
		closers = append(closers, llm.Close)
	}

	switch cfg.OCRBackend {
	case ai.OCRBackendTextract:
		r, err := textract.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		recognizer = r
	case ai.OCRBackendTesseract:
		r, err := tesseract.New(cfg)
		if err != nil {
			return nil, err
		}
		recognizer = r
	}

	return ai.Compose(classifier, recognizer, closers...), nil
}

// Close releases the stores and services in reverse order of opening.
func (s *System) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Error("error closing resource", "component", "sluice", "err", err)
			if first == nil {
				first = err
			}
		}
	}
	s.closers = nil
	return first
}

// Config returns the configuration the system was opened with.
func (s *System) Config() *config.Config {
	return s.cfg
}

// TextStore returns the chunk store.
func (s *System) TextStore() storage.TextStore {
	return s.text
}

// ImageStore returns the image artifact store.
func (s *System) ImageStore() storage.ImageStore {
	return s.images
}

// RunHistory returns the run history, or nil when the store keeps none.
func (s *System) RunHistory() storage.RunHistory {
	return s.history
}

// NewPipeline creates an ingestion pipeline over the system's stores.
// Options are applied after the configured defaults.
func (s *System) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	sink, err := ingestion.NewSink(s.text, s.images)
	if err != nil {
		return nil, err
	}
	extractors := extract.NewSet(
		extract.WithMaxFileBytes(s.cfg.Ingest.MaxFileBytes),
		extract.WithMaxImageBytes(s.cfg.Ingest.MaxImageBytes),
		extract.WithLogger(s.logger),
	)

	base := []ingestion.Option{
		ingestion.WithConfig(s.cfg.Ingestion()),
		ingestion.WithLogger(s.logger),
	}
	if s.provider != nil {
		base = append(base, ingestion.WithEnricher(ingestion.NewEnricherFromProvider(s.provider,
			ingestion.WithEnrichTimeout(s.cfg.Ingest.EnrichTimeout),
			ingestion.WithMaxEnrichDimension(s.cfg.Ingest.MaxEnrichDimension),
			ingestion.WithMinConfidence(s.cfg.Ingest.MinConfidence),
			ingestion.WithEnricherLogger(s.logger),
		)))
	}
	if s.history != nil {
		base = append(base, ingestion.WithRunHistory(s.history))
	}
	return ingestion.NewPipeline(s.markers, s.locks, sink, extractors, append(base, opts...)...)
}

// Ingest runs one batch over dir.
func (s *System) Ingest(ctx context.Context, dir string, opts ...ingestion.Option) (*ingestion.Report, error) {
	pipeline, err := s.NewPipeline(opts...)
	if err != nil {
		return nil, err
	}
	return pipeline.Run(ctx, dir)
}

// Status describes a directory without modifying it.
type Status struct {
	Dir       string
	Lock      *core.LockInfo // nil when unlocked
	LockStale bool
	Files     []*ingestion.DiscoveredFile
}

// Counts returns how many files are marked, changed since marking, and unmarked.
func (s *Status) Counts() (marked, changed, unmarked int) {
	for _, f := range s.Files {
		switch f.State {
		case ingestion.StateMarked:
			marked++
		case ingestion.StateChanged:
			changed++
		default:
			unmarked++
		}
	}
	return marked, changed, unmarked
}

// Inspect reports the lock holder and per-file marker state of dir. It
// touches no content store, so it is safe while a run is in progress.
func Inspect(ctx context.Context, cfg *config.Config, dir string, logger *slog.Logger) (*Status, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrDirectoryUnreadable, dir, err)
	}
	mode, err := core.ParseFingerprintMode(cfg.Ingest.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	files, err := ingestion.Survey(ctx, abs, fsstore.NewMarkerStore(logger), mode, logger)
	if err != nil {
		return nil, err
	}
	status := &Status{Dir: abs, Files: files}

	locks := newLockStore(cfg, logger)
	info, err := locks.Inspect(ctx, abs)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		status.Lock = info
		status.LockStale = info.Stale(timeNow(), locks.StaleAfter())
	}
	return status, nil
}

// Unlock removes the run lock of dir. A live lock is only removed with force.
func Unlock(ctx context.Context, cfg *config.Config, dir string, force bool, logger *slog.Logger) (*core.LockInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	locks := newLockStore(cfg, logger)
	info, err := locks.Inspect(ctx, abs)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotLocked, abs)
	}
	if err != nil {
		return nil, err
	}
	if !force && !info.Stale(timeNow(), locks.StaleAfter()) {
		return info, fmt.Errorf("%w: owner %s (pid %d on %s), last heartbeat %s",
			ErrLockActive, info.Owner, info.PID, info.Host, info.HeartbeatAt.Format("2006-01-02 15:04:05"))
	}
	if err := locks.Break(ctx, abs); err != nil {
		return info, err
	}
	return info, nil
}
