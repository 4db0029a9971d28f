// Package ingestion runs one batch over a directory of documents and images.
//
// A run takes the directory lock, discovers files whose marker is missing or
// stale, and processes them on a fixed-size worker pool:
//   - extracting text and images
//   - chunking text and enriching images on a best-effort basis
//   - writing chunks and image artifacts to the content sink
//   - writing the idempotence marker once everything is stored
//
// Transient per-file failures are retried with exponential backoff. Per-file
// errors never fail the run; they end up in the Report instead.
package ingestion
