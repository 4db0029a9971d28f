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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/sluice/chunk"
	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/extract"
	"github.com/poiesic/sluice/storage"
)

// Pipeline runs ingestion batches over directories.
// A Pipeline may be reused for several runs but runs must not overlap on
// the same directory; the lock store enforces that across processes.
type Pipeline struct {
	markers    storage.MarkerStore
	locks      storage.LockStore
	sink       *Sink
	extractors extract.Set
	enricher   *Enricher
	chunker    *chunk.Chunker
	monitor    Monitor
	history    storage.RunHistory
	writer     ReportWriter
	config     *Config
	retry      RetryPolicy
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConfig sets the run configuration.
// Default is DefaultConfig().
func WithConfig(config *Config) Option {
	return func(p *Pipeline) error {
		if config == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidConfig)
		}
		if err := config.Validate(); err != nil {
			return err
		}
		p.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithEnricher enables image enrichment. Without it images are stored
// with EXIF metadata only.
func WithEnricher(enricher *Enricher) Option {
	return func(p *Pipeline) error {
		p.enricher = enricher
		return nil
	}
}

// WithChunker sets the chunker.
// Default is a chunker using Config.MaxChunkSize.
func WithChunker(chunker *chunk.Chunker) Option {
	return func(p *Pipeline) error {
		p.chunker = chunker
		return nil
	}
}

// WithMonitor attaches a run monitor.
func WithMonitor(monitor Monitor) Option {
	return func(p *Pipeline) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		p.monitor = monitor
		return nil
	}
}

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now != nil {
			p.now = now
		}
		return nil
	}
}

// WithReportWriter sets how reports are persisted.
// Default writes a file per Config.ReportDir and Config.ReportFormat.
func WithReportWriter(writer ReportWriter) Option {
	return func(p *Pipeline) error {
		p.writer = writer
		return nil
	}
}

// WithRunHistory records a summary of every finished run.
func WithRunHistory(history storage.RunHistory) Option {
	return func(p *Pipeline) error {
		p.history = history
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	markers storage.MarkerStore,
	locks storage.LockStore,
	sink *Sink,
	extractors extract.Set,
	opts ...Option,
) (*Pipeline, error) {
	if markers == nil {
		return nil, ErrMarkerStoreRequired
	}
	if locks == nil {
		return nil, ErrLockStoreRequired
	}
	if sink == nil {
		return nil, ErrSinkRequired
	}
	if extractors.Document == nil || extractors.Image == nil {
		return nil, ErrExtractorRequired
	}

	p := &Pipeline{
		markers:    markers,
		locks:      locks,
		sink:       sink,
		extractors: extractors,
		monitor:    &noopMonitor{},
		config:     DefaultConfig(),
		now:        time.Now,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	// Derived settings depend on the final config
	p.logger = p.logger.With("component", "pipeline")
	p.retry = p.config.retryPolicy()
	if p.chunker == nil {
		chunker, err := chunk.New(p.config.MaxChunkSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		p.chunker = chunker
	}
	if p.writer == nil {
		p.writer = FileReportWriter(p.config.ReportDir, p.config.ReportFormat)
	}

	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return *p.config
}

// Run processes every unmarked or changed file in dir.
//
// It fails early only when the directory is locked by another run or cannot
// be listed. Per-file failures are recorded in the returned report. When ctx
// is cancelled no new files are started, in-flight files run to completion
// and the remaining files are reported pending. A non-nil report may come
// with an error when the report file could not be written.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Report, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrDirectoryUnreadable, dir, err)
	}

	lock, err := p.locks.Acquire(ctx, abs)
	if err != nil {
		return nil, err
	}
	logger := p.logger.With("dir", abs, "owner", lock.Info().Owner)
	stopHeartbeat := p.keepAlive(lock, logger)
	defer func() {
		stopHeartbeat()
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Error("failed to release directory lock", "err", err)
		}
	}()

	startedAt := p.now()
	tasks, err := Discover(ctx, abs, p.markers, p.config.Fingerprint, p.logger)
	if err != nil {
		return nil, err
	}
	logger.Info("starting run", "files", len(tasks), "batch_size", p.config.BatchSize, "retry_limit", p.config.RetryLimit)
	p.monitor.RunStarted(abs, len(tasks))

	reporter := NewReporter()
	dispatched, err := p.dispatch(ctx, tasks, reporter)
	if err != nil {
		return nil, err
	}
	for _, task := range tasks[dispatched:] {
		p.record(reporter, pendingOutcome(task, "run cancelled before the file was started"))
	}

	// A cancel that lands after the last file finished does not count.
	cancelled := dispatched < len(tasks) || reporter.Interrupted()
	report := reporter.Finalize(abs, startedAt, p.now().Sub(startedAt), cancelled)
	p.monitor.RunFinished(report.Summary)
	logger.Info("run finished",
		"succeeded", report.Summary.Succeeded,
		"failed", report.Summary.Failed,
		"pending", report.Summary.Pending,
		"chunks", report.Summary.Chunks,
		"images", report.Summary.Images,
		"cancelled", cancelled)

	var writeErr error
	if path, err := p.writer(report); err != nil {
		logger.Error("failed to write report", "err", err)
		writeErr = err
	} else {
		report.Path = path
	}

	if p.history != nil {
		if err := p.history.SaveRun(context.WithoutCancel(ctx), report.RunRecord()); err != nil {
			logger.Warn("failed to save run history", "err", err)
		}
	}
	return report, writeErr
}

// dispatch submits tasks to a pool of BatchSize workers until ctx is
// cancelled and waits for them. It returns how many tasks were submitted.
func (p *Pipeline) dispatch(ctx context.Context, tasks []*core.FileTask, reporter *Reporter) (int, error) {
	pool, err := ants.NewPool(p.config.BatchSize, ants.WithPanicHandler(func(v any) {
		p.logger.Error("worker panic", "panic", v)
	}))
	if err != nil {
		return 0, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	dispatched := 0
	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			p.runTask(ctx, task, reporter)
		})
		if err != nil {
			wg.Done()
			p.logger.Error("failed to submit task", "path", task.Path, "err", err)
			break
		}
		dispatched++
	}
	wg.Wait()
	return dispatched, nil
}

// keepAlive refreshes the lock heartbeat until the returned stop function is called.
func (p *Pipeline) keepAlive(lock storage.Lock, logger *slog.Logger) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(p.config.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := lock.Heartbeat(context.Background()); err != nil {
					if errors.Is(err, storage.ErrLockNotHeld) {
						logger.Error("directory lock lost", "err", err)
						return
					}
					logger.Warn("lock heartbeat failed", "err", err)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

func (p *Pipeline) record(reporter *Reporter, outcome *core.ProcessingOutcome) {
	if err := reporter.Record(outcome); err != nil {
		p.logger.Error("failed to record outcome", "path", outcome.Path, "err", err)
		return
	}
	p.monitor.FileFinished(outcome)
}

func pendingOutcome(task *core.FileTask, reason string) *core.ProcessingOutcome {
	return &core.ProcessingOutcome{
		Path:      task.Path,
		Kind:      task.Kind,
		Status:    core.StatusPending,
		ErrorKind: core.KindCancelled,
		Error:     reason,
	}
}
