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

// Package config loads sluice settings from a YAML file, a .env file and
// SLUICE_* environment variables. Command line flags are applied on top by
// the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/sluice/ai"
	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/ingestion"
	s3store "github.com/poiesic/sluice/storage/s3"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreBadger   = "badger"
	StorePostgres = "postgres"
	StoreS3       = "s3"
	StoreMemory   = "memory"
)

// ErrInvalidConfig is returned when settings fail to parse or validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete sluice configuration.
type Config struct {
	Ingest IngestConfig `yaml:"ingest"`
	Store  StoreConfig  `yaml:"store"`
	AI     ai.Config    `yaml:"ai"`
	Log    LogConfig    `yaml:"log"`
}

// IngestConfig controls a pipeline run.
type IngestConfig struct {
	BatchSize          int           `yaml:"batch_size"`
	RetryLimit         int           `yaml:"retry_limit"`
	RetryDelay         time.Duration `yaml:"retry_delay"`
	MaxRetryDelay      time.Duration `yaml:"max_retry_delay"`
	MaxChunkSize       int           `yaml:"max_chunk_size"`
	MaxFileBytes       int64         `yaml:"max_file_bytes"`
	MaxImageBytes      int64         `yaml:"max_image_bytes"`
	LockStaleAfter     time.Duration `yaml:"lock_stale_after"`
	HeartbeatInterval  time.Duration `yaml:"heartbeat_interval"`
	Fingerprint        string        `yaml:"fingerprint"`
	ReportDir          string        `yaml:"report_dir"`
	ReportFormat       string        `yaml:"report_format"`
	Enrich             bool          `yaml:"enrich"`
	EnrichTimeout      time.Duration `yaml:"enrich_timeout"`
	EnrichParallelism  int           `yaml:"enrich_parallelism"`
	MaxEnrichDimension int           `yaml:"max_enrich_dimension"`
	MinConfidence      float64       `yaml:"min_confidence"`
}

// StoreConfig selects and configures the content store.
type StoreConfig struct {
	Backend     string         `yaml:"backend"`
	Path        string         `yaml:"path"` // badger directory
	DatabaseURL string         `yaml:"database_url"`
	S3          s3store.Config `yaml:"s3"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the built-in configuration.
func Default() *Config {
	run := ingestion.DefaultConfig()
	return &Config{
		Ingest: IngestConfig{
			BatchSize:          run.BatchSize,
			RetryLimit:         run.RetryLimit,
			RetryDelay:         run.RetryDelay,
			MaxRetryDelay:      run.MaxRetryDelay,
			MaxChunkSize:       run.MaxChunkSize,
			MaxFileBytes:       64 << 20,
			MaxImageBytes:      20 << 20,
			LockStaleAfter:     10 * time.Minute,
			HeartbeatInterval:  run.HeartbeatInterval,
			Fingerprint:        string(run.Fingerprint),
			ReportFormat:       run.ReportFormat,
			Enrich:             true,
			EnrichTimeout:      ingestion.DefaultEnrichTimeout,
			EnrichParallelism:  run.EnrichParallelism,
			MaxEnrichDimension: ingestion.DefaultMaxEnrichDimension,
		},
		Store: StoreConfig{
			Backend: StoreBadger,
			Path:    ".sluice-store",
		},
		AI: *ai.DefaultConfig(),
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load returns the default configuration overlaid with the YAML file at
// path, if path is not empty. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidConfig, path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// LoadEnvFile loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is only
// an error when required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("%w: env file: %w", ErrInvalidConfig, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: env file %s: %w", ErrInvalidConfig, path, err)
	}
	return nil
}

// Validate checks the configuration as a whole.
func (c *Config) Validate() error {
	if err := c.Ingestion().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Ingest.MaxFileBytes <= 0 || c.Ingest.MaxImageBytes <= 0 {
		return fmt.Errorf("%w: size limits must be positive", ErrInvalidConfig)
	}
	if c.Ingest.LockStaleAfter <= c.Ingest.HeartbeatInterval {
		return fmt.Errorf("%w: lock_stale_after (%s) must exceed heartbeat_interval (%s)",
			ErrInvalidConfig, c.Ingest.LockStaleAfter, c.Ingest.HeartbeatInterval)
	}
	if c.Ingest.MinConfidence < 0 || c.Ingest.MinConfidence > 1 {
		return fmt.Errorf("%w: min_confidence must be within [0,1]", ErrInvalidConfig)
	}

	backends := []string{StoreBadger, StorePostgres, StoreS3, StoreMemory}
	switch c.Store.Backend {
	case StoreBadger:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: badger store needs a path", ErrInvalidConfig)
		}
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("%w: postgres store needs a database URL", ErrInvalidConfig)
		}
	case StoreS3:
		if err := c.Store.S3.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("%w: unknown store %q: must be one of %s",
			ErrInvalidConfig, c.Store.Backend, strings.Join(backends, ", "))
	}

	if c.Ingest.Enrich {
		if err := c.AI.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}

// Ingestion returns the pipeline configuration.
func (c *Config) Ingestion() *ingestion.Config {
	return &ingestion.Config{
		BatchSize:         c.Ingest.BatchSize,
		RetryLimit:        c.Ingest.RetryLimit,
		RetryDelay:        c.Ingest.RetryDelay,
		MaxRetryDelay:     c.Ingest.MaxRetryDelay,
		MaxChunkSize:      c.Ingest.MaxChunkSize,
		HeartbeatInterval: c.Ingest.HeartbeatInterval,
		EnrichParallelism: c.Ingest.EnrichParallelism,
		Fingerprint:       core.FingerprintMode(c.Ingest.Fingerprint),
		ReportDir:         c.Ingest.ReportDir,
		ReportFormat:      c.Ingest.ReportFormat,
	}
}
