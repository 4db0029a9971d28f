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

// Package extract turns source files into structured content.
//
// There are exactly two extractors, one per core.FileKind. The document
// extractor dispatches on file extension; the image extractor sniffs the
// content. Failures wrap core.ErrExtractionFailed, and content outside the
// configured size bounds wraps core.ErrUnsupportedContent.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/sluice/core"
)

const (
	// DefaultMaxFileBytes is the largest source file accepted.
	DefaultMaxFileBytes int64 = 64 << 20

	// DefaultMaxImageBytes is the largest embedded image accepted.
	DefaultMaxImageBytes int64 = 20 << 20
)

// Extractor extracts content from one file.
type Extractor interface {
	Extract(ctx context.Context, path string) (*core.ExtractionResult, error)
}

// Set holds the extractor for each file kind.
type Set struct {
	Document Extractor
	Image    Extractor
}

// For returns the extractor responsible for kind.
func (s Set) For(kind core.FileKind) (Extractor, error) {
	switch kind {
	case core.KindDocument:
		if s.Document != nil {
			return s.Document, nil
		}
	case core.KindImage:
		if s.Image != nil {
			return s.Image, nil
		}
	}
	return nil, fmt.Errorf("%w: no extractor for kind %s", core.ErrUnsupportedContent, kind)
}

// NewSet builds the default document and image extractors sharing opts.
func NewSet(opts ...Option) Set {
	return Set{
		Document: NewDocumentExtractor(opts...),
		Image:    NewImageExtractor(opts...),
	}
}

type options struct {
	maxFileBytes  int64
	maxImageBytes int64
	logger        *slog.Logger
}

// Option configures an extractor.
type Option func(*options)

// WithMaxFileBytes bounds the size of source files.
// Zero or negative disables the bound.
func WithMaxFileBytes(n int64) Option {
	return func(o *options) {
		o.maxFileBytes = n
	}
}

// WithMaxImageBytes bounds the size of each image embedded in a document.
// Zero or negative disables the bound.
func WithMaxImageBytes(n int64) Option {
	return func(o *options) {
		o.maxImageBytes = n
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(component string, opts []Option) options {
	o := options{
		maxFileBytes:  DefaultMaxFileBytes,
		maxImageBytes: DefaultMaxImageBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", component)
	return o
}

// readFile loads path after checking it against the size bound.
func (o options) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrExtractionFailed, err)
	}
	if o.maxFileBytes > 0 && info.Size() > o.maxFileBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d",
			core.ErrUnsupportedContent, path, info.Size(), o.maxFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrExtractionFailed, err)
	}
	return data, nil
}

// checkEmbedded enforces the embedded image bound.
func (o options) checkEmbedded(images []core.EmbeddedImage) error {
	if o.maxImageBytes <= 0 {
		return nil
	}
	for _, img := range images {
		if int64(len(img.Bytes)) > o.maxImageBytes {
			return fmt.Errorf("%w: embedded image %d on page %d is %d bytes, limit is %d",
				core.ErrUnsupportedContent, img.Ordinal, img.Page, len(img.Bytes), o.maxImageBytes)
		}
	}
	return nil
}
