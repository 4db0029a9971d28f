package ingestion

import "errors"

var (
	// ErrMarkerStoreRequired is returned when a marker store is not provided.
	ErrMarkerStoreRequired = errors.New("marker store required")

	// ErrLockStoreRequired is returned when a lock store is not provided.
	ErrLockStoreRequired = errors.New("lock store required")

	// ErrSinkRequired is returned when a content sink is not provided.
	ErrSinkRequired = errors.New("content sink required")

	// ErrExtractorRequired is returned when the extractor set is incomplete.
	ErrExtractorRequired = errors.New("document and image extractors required")

	// ErrTextStoreRequired is returned when a sink is built without a text store.
	ErrTextStoreRequired = errors.New("text store required")

	// ErrImageStoreRequired is returned when a sink is built without an image store.
	ErrImageStoreRequired = errors.New("image store required")

	// ErrInvalidConfig is returned when pipeline configuration fails validation.
	ErrInvalidConfig = errors.New("invalid pipeline configuration")

	// ErrDuplicateOutcome is returned when a file is recorded twice in one run.
	ErrDuplicateOutcome = errors.New("outcome already recorded")

	// ErrReportFinalized is returned when recording into a finalized report.
	ErrReportFinalized = errors.New("report already finalized")
)
