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
	"fmt"
	"time"

	"github.com/poiesic/sluice/core"
)

// Report file formats.
const (
	ReportCSV  = "csv"
	ReportJSON = "json"
)

// Config holds configuration for a pipeline run.
type Config struct {
	// BatchSize is the number of files processed concurrently.
	BatchSize int

	// RetryLimit is the number of additional attempts after a transient failure.
	RetryLimit int

	// RetryDelay is the base backoff delay. It doubles on each retry.
	RetryDelay time.Duration

	// MaxRetryDelay caps the backoff delay. Zero means uncapped.
	MaxRetryDelay time.Duration

	// MaxChunkSize is the chunk size limit in characters.
	MaxChunkSize int

	// HeartbeatInterval is how often the directory lock heartbeat is refreshed.
	HeartbeatInterval time.Duration

	// EnrichParallelism bounds concurrent enrichment calls for the images of one document.
	EnrichParallelism int

	// Fingerprint selects how file changes are detected.
	Fingerprint core.FingerprintMode

	// ReportDir is where the report file goes. Empty means the target directory.
	ReportDir string

	// ReportFormat is ReportCSV or ReportJSON.
	ReportFormat string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:         3,
		RetryLimit:        3,
		RetryDelay:        500 * time.Millisecond,
		MaxRetryDelay:     30 * time.Second,
		MaxChunkSize:      1000,
		HeartbeatInterval: 30 * time.Second,
		EnrichParallelism: 2,
		Fingerprint:       core.FingerprintStat,
		ReportFormat:      ReportCSV,
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.RetryLimit < 0 {
		return fmt.Errorf("%w: retry limit cannot be negative, got %d", ErrInvalidConfig, c.RetryLimit)
	}
	if c.RetryDelay < 0 || c.MaxRetryDelay < 0 {
		return fmt.Errorf("%w: retry delays cannot be negative", ErrInvalidConfig)
	}
	if c.MaxChunkSize < 1 {
		return fmt.Errorf("%w: max chunk size must be at least 1, got %d", ErrInvalidConfig, c.MaxChunkSize)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("%w: heartbeat interval must be positive", ErrInvalidConfig)
	}
	if c.EnrichParallelism < 1 {
		return fmt.Errorf("%w: enrich parallelism must be at least 1, got %d", ErrInvalidConfig, c.EnrichParallelism)
	}
	if _, err := core.ParseFingerprintMode(string(c.Fingerprint)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.ReportFormat {
	case ReportCSV, ReportJSON:
	default:
		return fmt.Errorf("%w: unknown report format %q", ErrInvalidConfig, c.ReportFormat)
	}
	return nil
}

// retryPolicy derives the retry policy from the configuration.
func (c *Config) retryPolicy() RetryPolicy {
	return RetryPolicy{
		Limit:     c.RetryLimit,
		BaseDelay: c.RetryDelay,
		MaxDelay:  c.MaxRetryDelay,
	}
}
