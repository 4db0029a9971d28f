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

import (
	"context"
	"errors"
)

// Pipeline error taxonomy
var (
	// ErrDirectoryUnreadable indicates the target directory could not be listed.
	// Fatal: the run aborts before any task starts.
	ErrDirectoryUnreadable = errors.New("directory unreadable")

	// ErrDirectoryLocked indicates another run holds the directory lock.
	// Fatal: the run aborts immediately.
	ErrDirectoryLocked = errors.New("directory locked")

	// ErrExtractionFailed indicates a file could not be parsed. Retried.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrSinkWriteFailed indicates a content store rejected a write. Retried.
	ErrSinkWriteFailed = errors.New("sink write failed")

	// ErrUnsupportedContent indicates content outside configured bounds. Not retried.
	ErrUnsupportedContent = errors.New("unsupported content")

	// ErrMarkerWriteFailed indicates the idempotence marker could not be written.
	// The whole attempt counts as failed.
	ErrMarkerWriteFailed = errors.New("marker write failed")
)

// Domain validation errors
var (
	// ErrInvalidTransition indicates an illegal FileTask state change.
	ErrInvalidTransition = errors.New("invalid task transition")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidImageArtifact indicates an ImageArtifact failed validation.
	ErrInvalidImageArtifact = errors.New("invalid image artifact")

	// ErrInvalidMarker indicates a Marker failed validation.
	ErrInvalidMarker = errors.New("invalid marker")

	// ErrEmptyPath indicates a required path is empty.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrEmptyContent indicates required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")
)

// ErrorKind names a taxonomy entry in reports.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindDirectoryUnreadable ErrorKind = "DirectoryUnreadable"
	KindDirectoryLocked     ErrorKind = "DirectoryLocked"
	KindExtractionFailed    ErrorKind = "ExtractionFailed"
	KindSinkWriteFailed     ErrorKind = "SinkWriteFailed"
	KindUnsupportedContent  ErrorKind = "UnsupportedContent"
	KindMarkerWriteFailed   ErrorKind = "MarkerWriteFailed"
	KindCancelled           ErrorKind = "Cancelled"
	KindUnknown             ErrorKind = "Unknown"
)

// KindOf classifies err against the taxonomy.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUnsupportedContent):
		return KindUnsupportedContent
	case errors.Is(err, ErrMarkerWriteFailed):
		return KindMarkerWriteFailed
	case errors.Is(err, ErrSinkWriteFailed):
		return KindSinkWriteFailed
	case errors.Is(err, ErrExtractionFailed):
		return KindExtractionFailed
	case errors.Is(err, ErrDirectoryLocked):
		return KindDirectoryLocked
	case errors.Is(err, ErrDirectoryUnreadable):
		return KindDirectoryUnreadable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindUnknown
	}
}

// IsTerminal reports whether err must not be retried.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrUnsupportedContent)
}
