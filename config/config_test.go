package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/sluice/ai"
	"github.com/poiesic/sluice/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Ingest.BatchSize)
	assert.Equal(t, 3, cfg.Ingest.RetryLimit)
	assert.Equal(t, 1000, cfg.Ingest.MaxChunkSize)
	assert.Equal(t, 10*time.Minute, cfg.Ingest.LockStaleAfter)
	assert.Equal(t, StoreBadger, cfg.Store.Backend)
	assert.Equal(t, "csv", cfg.Ingest.ReportFormat)

	run := cfg.Ingestion()
	assert.Equal(t, core.FingerprintStat, run.Fingerprint)
	assert.Equal(t, 500*time.Millisecond, run.RetryDelay)
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sluice.yaml")
	yml := `
ingest:
  batch_size: 8
  retry_delay: 2s
  fingerprint: content
  report_format: json
store:
  backend: s3
  s3:
    bucket: corpus
    prefix: ingest/
    endpoint: http://localhost:9000
ai:
  ocr_backend: textract
  classifier_model: ""
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Ingest.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Ingest.RetryDelay)
	assert.Equal(t, 3, cfg.Ingest.RetryLimit, "unset keys keep defaults")
	assert.Equal(t, "content", cfg.Ingest.Fingerprint)
	assert.Equal(t, StoreS3, cfg.Store.Backend)
	assert.Equal(t, "corpus", cfg.Store.S3.Bucket)
	assert.Equal(t, ai.OCRBackendTextract, cfg.AI.OCRBackend)
	assert.Empty(t, cfg.AI.ClassifierModel)
	assert.Equal(t, "http://localhost:11434/v1", cfg.AI.Host)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ingest: [unclosed"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"SLUICE_BATCH_SIZE":     "5",
		"SLUICE_RETRY_DELAY":    "250ms",
		"SLUICE_ENRICH":         "false",
		"SLUICE_STORE":          "postgres",
		"DATABASE_URL":          "postgres://localhost/sluice",
		"AWS_REGION":            "eu-west-1",
		"AWS_ACCESS_KEY_ID":     "AKIA",
		"AWS_SECRET_ACCESS_KEY": "secret",
		"SLUICE_OCR_LANGUAGES":  "eng,deu",
		"SLUICE_REPORT_DIR":     "   ",
	}))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Ingest.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Ingest.RetryDelay)
	assert.False(t, cfg.Ingest.Enrich)
	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/sluice", cfg.Store.DatabaseURL)
	assert.Equal(t, "eu-west-1", cfg.Store.S3.Region)
	assert.Equal(t, "eu-west-1", cfg.AI.Region)
	assert.Equal(t, "AKIA", cfg.AI.AccessKey)
	assert.Equal(t, []string{"eng", "deu"}, cfg.AI.Languages)
	assert.Empty(t, cfg.Ingest.ReportDir, "blank values are ignored")
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv_ParseError(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{"SLUICE_BATCH_SIZE": "many"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "SLUICE_BATCH_SIZE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero batch size", func(c *Config) { c.Ingest.BatchSize = 0 }},
		{"negative retry limit", func(c *Config) { c.Ingest.RetryLimit = -1 }},
		{"unknown fingerprint", func(c *Config) { c.Ingest.Fingerprint = "md5" }},
		{"unknown report format", func(c *Config) { c.Ingest.ReportFormat = "xml" }},
		{"stale lock shorter than heartbeat", func(c *Config) { c.Ingest.LockStaleAfter = time.Second }},
		{"unknown store", func(c *Config) { c.Store.Backend = "sqlite" }},
		{"postgres without url", func(c *Config) { c.Store.Backend = StorePostgres }},
		{"s3 without bucket", func(c *Config) { c.Store.Backend = StoreS3 }},
		{"badger without path", func(c *Config) { c.Store.Path = "" }},
		{"unknown ocr backend", func(c *Config) { c.AI.OCRBackend = "magic" }},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }},
		{"confidence out of range", func(c *Config) { c.Ingest.MinConfidence = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidate_AIIgnoredWhenEnrichmentDisabled(t *testing.T) {
	cfg := Default()
	cfg.Ingest.Enrich = false
	cfg.AI.OCRBackend = "magic"
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile("", true))
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env"), false))
	assert.ErrorIs(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env"), true), ErrInvalidConfig)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SLUICE_TEST_ENV_FILE=loaded\n"), 0o644))
	t.Setenv("SLUICE_TEST_ENV_FILE", "")
	os.Unsetenv("SLUICE_TEST_ENV_FILE")

	require.NoError(t, LoadEnvFile(path, true))
	assert.Equal(t, "loaded", os.Getenv("SLUICE_TEST_ENV_FILE"))
}
