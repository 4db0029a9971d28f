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
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/poiesic/sluice/ai"
	"github.com/poiesic/sluice/core"
)

const (
	// DefaultEnrichTimeout bounds a single classification or OCR call.
	DefaultEnrichTimeout = 60 * time.Second

	// DefaultMaxEnrichDimension is the longest image side sent to a backend.
	DefaultMaxEnrichDimension = 1568
)

// Enricher adds optional classification and OCR text to images.
// It never returns errors: failures, timeouts and panics in a backend are
// logged and the corresponding result is absent.
type Enricher struct {
	classifier    ai.Classifier
	recognizer    ai.TextRecognizer
	timeout       time.Duration
	maxDimension  int
	minConfidence float64
	logger        *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithEnrichTimeout sets the per-call timeout.
// Default is DefaultEnrichTimeout.
func WithEnrichTimeout(d time.Duration) EnricherOption {
	return func(e *Enricher) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxEnrichDimension sets the longest side, in pixels, of payloads sent
// to the backends. Larger images are downscaled. Zero disables downscaling.
func WithMaxEnrichDimension(px int) EnricherOption {
	return func(e *Enricher) {
		if px >= 0 {
			e.maxDimension = px
		}
	}
}

// WithMinConfidence discards results whose confidence is below min.
func WithMinConfidence(min float64) EnricherOption {
	return func(e *Enricher) {
		e.minConfidence = min
	}
}

// WithEnricherLogger sets a custom logger.
func WithEnricherLogger(logger *slog.Logger) EnricherOption {
	return func(e *Enricher) {
		if logger != nil {
			e.logger = logger.With("component", "enricher")
		}
	}
}

// NewEnricher creates an enricher. Either service may be nil, in which case
// the corresponding result is always absent.
func NewEnricher(classifier ai.Classifier, recognizer ai.TextRecognizer, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		classifier:   classifier,
		recognizer:   recognizer,
		timeout:      DefaultEnrichTimeout,
		maxDimension: DefaultMaxEnrichDimension,
		logger:       slog.Default().With("component", "enricher"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEnricherFromProvider creates an enricher over the services of an AI provider.
func NewEnricherFromProvider(provider ai.Provider, opts ...EnricherOption) *Enricher {
	if provider == nil {
		return NewEnricher(nil, nil, opts...)
	}
	return NewEnricher(provider.Classifier(), provider.TextRecognizer(), opts...)
}

// Enabled reports whether any enrichment service is configured.
func (e *Enricher) Enabled() bool {
	return e != nil && (e.classifier != nil || e.recognizer != nil)
}

// Classify labels an image. The boolean is false when no label is available.
func (e *Enricher) Classify(ctx context.Context, image []byte, format string) (*core.Classification, bool) {
	if e == nil || e.classifier == nil || len(image) == 0 {
		return nil, false
	}
	payload, payloadFormat := e.prepare(image, format)
	return e.classify(ctx, payload, payloadFormat)
}

// ExtractText recognizes text in an image. The boolean is false when no text
// is available.
func (e *Enricher) ExtractText(ctx context.Context, image []byte, format string) (*core.OCRText, bool) {
	if e == nil || e.recognizer == nil || len(image) == 0 {
		return nil, false
	}
	payload, payloadFormat := e.prepare(image, format)
	return e.extractText(ctx, payload, payloadFormat)
}

// Enrich fills the classification and OCR fields of artifact. The payload is
// prepared once and shared by both calls.
func (e *Enricher) Enrich(ctx context.Context, artifact *core.ImageArtifact) {
	if !e.Enabled() || artifact == nil || len(artifact.Bytes) == 0 {
		return
	}
	payload, format := e.prepare(artifact.Bytes, artifact.Format)
	if e.classifier != nil {
		if c, ok := e.classify(ctx, payload, format); ok {
			artifact.Classification = c
		}
	}
	if e.recognizer != nil {
		if t, ok := e.extractText(ctx, payload, format); ok {
			artifact.OCR = t
		}
	}
}

func (e *Enricher) classify(ctx context.Context, payload []byte, format string) (*core.Classification, bool) {
	var label *ai.Label
	ok := e.call(ctx, "classify", func(ctx context.Context) error {
		var err error
		label, err = e.classifier.Classify(ctx, payload, format)
		return err
	})
	if !ok || label == nil {
		return nil, false
	}
	c := &core.Classification{
		Label:      ai.NormalizeLabel(label.Name),
		Confidence: ai.ClampConfidence(label.Confidence),
	}
	if c.Confidence < e.minConfidence {
		e.logger.Debug("classification below threshold", "label", c.Label, "confidence", c.Confidence)
		return nil, false
	}
	return c, true
}

func (e *Enricher) extractText(ctx context.Context, payload []byte, format string) (*core.OCRText, bool) {
	var recognized *ai.RecognizedText
	ok := e.call(ctx, "ocr", func(ctx context.Context) error {
		var err error
		recognized, err = e.recognizer.RecognizeText(ctx, payload, format)
		return err
	})
	if !ok || recognized == nil {
		return nil, false
	}
	text := strings.TrimSpace(recognized.Text)
	if text == "" {
		return nil, false
	}
	t := &core.OCRText{Text: text, Confidence: ai.ClampConfidence(recognized.Confidence)}
	if t.Confidence < e.minConfidence {
		e.logger.Debug("ocr text below threshold", "confidence", t.Confidence)
		return nil, false
	}
	return t, true
}

// call runs fn with the enrichment timeout. A backend that ignores its
// context is abandoned when the timeout fires.
func (e *Enricher) call(ctx context.Context, op string, fn func(context.Context) error) bool {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			e.logger.Warn("enrichment failed", "op", op, "err", err)
			return false
		}
		return true
	case <-ctx.Done():
		e.logger.Warn("enrichment timed out", "op", op, "err", ctx.Err())
		return false
	}
}

// prepare returns the payload to send to a backend: the original bytes when
// they are small enough and in a format every backend accepts, otherwise a
// downscaled PNG or JPEG.
func (e *Enricher) prepare(data []byte, format string) ([]byte, string) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return data, format
	}

	bounds := img.Bounds()
	oversized := e.maxDimension > 0 && (bounds.Dx() > e.maxDimension || bounds.Dy() > e.maxDimension)
	portable := format == "png" || format == "jpeg"
	if !oversized && portable {
		return data, format
	}
	if oversized {
		img = imaging.Fit(img, e.maxDimension, e.maxDimension, imaging.Lanczos)
	}

	outFormat, outName := imaging.PNG, "png"
	if format == "jpeg" {
		outFormat, outName = imaging.JPEG, "jpeg"
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, outFormat); err != nil {
		e.logger.Debug("cannot re-encode enrichment payload", "err", err)
		return data, format
	}
	return buf.Bytes(), outName
}
