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

package core

import "fmt"

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - SourcePath must not be empty
//   - Index must not be negative
//   - Text must not be empty
//   - the byte range must be well formed
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.SourcePath == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyPath)
	}
	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidChunk, chunk.Index)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	if chunk.Start < 0 || chunk.End < chunk.Start {
		return fmt.Errorf("%w: bad range [%d,%d)", ErrInvalidChunk, chunk.Start, chunk.End)
	}
	return nil
}

// ValidateChunkSequence checks that chunks belong to one source and are
// indexed 0..n-1 in order.
func ValidateChunkSequence(source string, chunks []*Chunk) error {
	for i, c := range chunks {
		if err := ValidateChunk(c); err != nil {
			return err
		}
		if c.SourcePath != source {
			return fmt.Errorf("%w: chunk %d belongs to %s, not %s", ErrInvalidChunk, i, c.SourcePath, source)
		}
		if c.Index != i {
			return fmt.Errorf("%w: expected index %d, got %d", ErrInvalidChunk, i, c.Index)
		}
	}
	return nil
}

// ValidateImageArtifact validates an ImageArtifact according to domain rules.
//
// Classification, OCR and Exif are optional and not validated.
func ValidateImageArtifact(artifact *ImageArtifact) error {
	if artifact == nil {
		return fmt.Errorf("%w: artifact is nil", ErrInvalidImageArtifact)
	}
	if artifact.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidImageArtifact)
	}
	if artifact.SourcePath == "" {
		return fmt.Errorf("%w: %w", ErrInvalidImageArtifact, ErrEmptyPath)
	}
	if len(artifact.Bytes) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidImageArtifact, ErrEmptyContent)
	}
	if artifact.Page < 0 || artifact.Ordinal < 0 {
		return fmt.Errorf("%w: negative position (%d,%d)", ErrInvalidImageArtifact, artifact.Page, artifact.Ordinal)
	}
	return nil
}

// ValidateMarker validates a Marker before it is persisted.
func ValidateMarker(marker *Marker) error {
	if marker == nil {
		return fmt.Errorf("%w: marker is nil", ErrInvalidMarker)
	}
	if marker.Path == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMarker, ErrEmptyPath)
	}
	if marker.Fingerprint == "" {
		return fmt.Errorf("%w: missing fingerprint", ErrInvalidMarker)
	}
	if marker.ProcessedAt.IsZero() {
		return fmt.Errorf("%w: missing processed timestamp", ErrInvalidMarker)
	}
	return nil
}
