package ai

import "errors"

var (
	// ErrBackendUnavailable is returned when a backend is not compiled in
	// or cannot be reached.
	ErrBackendUnavailable = errors.New("enrichment backend unavailable")

	// ErrEmptyImage is returned when no image bytes are supplied.
	ErrEmptyImage = errors.New("image is empty")

	// ErrInvalidResponse is returned when a backend reply cannot be parsed.
	ErrInvalidResponse = errors.New("invalid backend response")
)
