package ingestion

import (
	"context"
	"fmt"
	"os"

	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/extract"
	"golang.org/x/sync/errgroup"
)

// fileResult counts what one successful attempt stored.
type fileResult struct {
	chunks int
	images int
}

// runTask drives one file through its state machine and records the outcome.
func (p *Pipeline) runTask(ctx context.Context, task *core.FileTask, reporter *Reporter) {
	if ctx.Err() != nil {
		p.record(reporter, pendingOutcome(task, "run cancelled before the file was started"))
		return
	}

	outcome := &core.ProcessingOutcome{Path: task.Path, Kind: task.Kind, StartedAt: p.now()}
	recorded := false
	finish := func(status core.TaskStatus, err error) {
		outcome.Status = status
		outcome.Attempts = task.Attempts
		outcome.FinishedAt = p.now()
		if err != nil {
			if outcome.ErrorKind == core.KindNone {
				outcome.ErrorKind = core.KindOf(err)
			}
			outcome.Error = err.Error()
		}
		recorded = true
		p.record(reporter, outcome)
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", "path", task.Path, "panic", r)
			if !recorded {
				task.Status = core.StatusFailed
				finish(core.StatusFailed, fmt.Errorf("%w: panic: %v", core.ErrExtractionFailed, r))
			}
		}
	}()

	logger := p.logger.With("path", task.Path, "kind", task.Kind.String())
	if err := task.Claim(); err != nil {
		logger.Error("cannot claim task", "err", err)
		finish(core.StatusFailed, err)
		return
	}

	// In-flight attempts are not interrupted by cancellation
	attemptCtx := context.WithoutCancel(ctx)
	for {
		if err := task.BeginAttempt(); err != nil {
			finish(core.StatusFailed, err)
			return
		}
		result, err := p.attempt(attemptCtx, task)
		if err == nil {
			task.Succeed()
			outcome.ChunksWritten = result.chunks
			outcome.ImagesWritten = result.images
			logger.Debug("file processed", "attempts", task.Attempts, "chunks", result.chunks, "images", result.images)
			finish(core.StatusSucceeded, nil)
			return
		}

		retry, delay := p.retry.Next(task.Attempts, err)
		p.monitor.AttemptFailed(task, err, retry, delay)
		if !retry {
			logger.Warn("file failed", "attempts", task.Attempts, "err", err)
			task.Fail()
			finish(core.StatusFailed, err)
			return
		}

		logger.Debug("attempt failed, will retry", "attempt", task.Attempts, "delay", delay, "err", err)
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			logger.Info("retry abandoned on cancellation", "attempts", task.Attempts)
			task.Fail()
			outcome.ErrorKind = core.KindCancelled
			finish(core.StatusFailed, fmt.Errorf("cancelled before retry: %w", err))
			return
		}
	}
}

// attempt runs extract, chunk/enrich, store and mark for one file.
// Panics are converted to extraction failures so they are retried like any
// other transient error.
func (p *Pipeline) attempt(ctx context.Context, task *core.FileTask) (result fileResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", core.ErrExtractionFailed, r)
		}
	}()

	extractor, err := p.extractors.For(task.Kind)
	if err != nil {
		return result, err
	}
	extracted, err := extractor.Extract(ctx, task.Path)
	if err != nil {
		if core.KindOf(err) == core.KindUnknown {
			err = fmt.Errorf("%w: %w", core.ErrExtractionFailed, err)
		}
		return result, err
	}

	switch task.Kind {
	case core.KindDocument:
		result, err = p.storeDocument(ctx, task.Path, extracted)
	case core.KindImage:
		result, err = p.storeImage(ctx, task.Path, extracted)
	default:
		err = fmt.Errorf("%w: %s", core.ErrUnsupportedContent, task.Kind)
	}
	if err != nil {
		return result, err
	}

	if err := p.mark(ctx, task, result); err != nil {
		return result, err
	}
	return result, nil
}

func (p *Pipeline) storeDocument(ctx context.Context, path string, extracted *core.ExtractionResult) (fileResult, error) {
	chunks := p.chunker.Chunk(path, extracted.Text)
	if err := p.sink.WriteChunks(ctx, path, chunks); err != nil {
		return fileResult{}, err
	}

	artifacts := make([]*core.ImageArtifact, len(extracted.Images))
	for i, img := range extracted.Images {
		artifacts[i] = &core.ImageArtifact{
			ID:             core.ImageID(path, img.Page, img.Ordinal),
			Bytes:          img.Bytes,
			Format:         img.Format,
			SourcePath:     path,
			ParentDocument: path,
			Page:           img.Page,
			Ordinal:        img.Ordinal,
			Exif:           extract.ReadExif(img.Bytes),
		}
	}
	p.enrichAll(ctx, artifacts)

	for _, artifact := range artifacts {
		if err := p.sink.WriteImage(ctx, artifact); err != nil {
			return fileResult{}, err
		}
	}
	if err := p.sink.PruneImages(ctx, path, artifacts); err != nil {
		return fileResult{}, err
	}
	return fileResult{chunks: len(chunks), images: len(artifacts)}, nil
}

func (p *Pipeline) storeImage(ctx context.Context, path string, extracted *core.ExtractionResult) (fileResult, error) {
	if extracted.Image == nil {
		return fileResult{}, fmt.Errorf("%w: %s: no image data", core.ErrExtractionFailed, path)
	}
	artifact := &core.ImageArtifact{
		ID:         core.ImageID(path, 0, 0),
		Bytes:      extracted.Image.Bytes,
		Format:     extracted.Image.Format,
		SourcePath: path,
		Exif:       extracted.Image.Exif,
	}
	p.enrichAll(ctx, []*core.ImageArtifact{artifact})

	if err := p.sink.WriteImage(ctx, artifact); err != nil {
		return fileResult{}, err
	}
	return fileResult{images: 1}, nil
}

// enrichAll enriches artifacts with at most EnrichParallelism calls in flight.
func (p *Pipeline) enrichAll(ctx context.Context, artifacts []*core.ImageArtifact) {
	if !p.enricher.Enabled() || len(artifacts) == 0 {
		return
	}
	var g errgroup.Group
	g.SetLimit(p.config.EnrichParallelism)
	for _, artifact := range artifacts {
		g.Go(func() error {
			p.enricher.Enrich(ctx, artifact)
			return nil
		})
	}
	g.Wait()
}

// mark writes the idempotence marker. It is the last step of an attempt.
func (p *Pipeline) mark(ctx context.Context, task *core.FileTask, result fileResult) error {
	fingerprint := task.Fingerprint
	if fingerprint == "" {
		info, err := os.Stat(task.Path)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", core.ErrMarkerWriteFailed, task.Path, err)
		}
		fingerprint, err = core.Fingerprint(task.Path, info, p.config.Fingerprint)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", core.ErrMarkerWriteFailed, task.Path, err)
		}
		task.Fingerprint = fingerprint
	}

	marker := &core.Marker{
		Path:        task.Path,
		Fingerprint: fingerprint,
		ProcessedAt: p.now(),
		Chunks:      result.chunks,
		Images:      result.images,
	}
	if err := p.markers.Put(ctx, marker); err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrMarkerWriteFailed, task.Path, err)
	}
	return nil
}
