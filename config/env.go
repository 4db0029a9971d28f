package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from SLUICE_* variables and the standard
// DATABASE_URL and AWS_* variables. Unset variables leave settings unchanged.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	e := envReader{lookup: lookup}

	e.int("SLUICE_BATCH_SIZE", &c.Ingest.BatchSize)
	e.int("SLUICE_RETRY_LIMIT", &c.Ingest.RetryLimit)
	e.duration("SLUICE_RETRY_DELAY", &c.Ingest.RetryDelay)
	e.int("SLUICE_MAX_CHUNK_SIZE", &c.Ingest.MaxChunkSize)
	e.int64("SLUICE_MAX_FILE_BYTES", &c.Ingest.MaxFileBytes)
	e.duration("SLUICE_LOCK_STALE_AFTER", &c.Ingest.LockStaleAfter)
	e.str("SLUICE_FINGERPRINT", &c.Ingest.Fingerprint)
	e.str("SLUICE_REPORT_DIR", &c.Ingest.ReportDir)
	e.str("SLUICE_REPORT_FORMAT", &c.Ingest.ReportFormat)
	e.boolean("SLUICE_ENRICH", &c.Ingest.Enrich)
	e.duration("SLUICE_ENRICH_TIMEOUT", &c.Ingest.EnrichTimeout)

	e.str("SLUICE_STORE", &c.Store.Backend)
	e.str("SLUICE_DB", &c.Store.Path)
	e.str("DATABASE_URL", &c.Store.DatabaseURL)
	e.str("SLUICE_DATABASE_URL", &c.Store.DatabaseURL)
	e.str("SLUICE_S3_BUCKET", &c.Store.S3.Bucket)
	e.str("SLUICE_S3_PREFIX", &c.Store.S3.Prefix)
	e.str("SLUICE_S3_ENDPOINT", &c.Store.S3.Endpoint)

	e.str("SLUICE_AI_HOST", &c.AI.Host)
	e.str("SLUICE_CLASSIFIER_MODEL", &c.AI.ClassifierModel)
	e.str("SLUICE_OCR_BACKEND", &c.AI.OCRBackend)
	e.str("SLUICE_OCR_MODEL", &c.AI.OCRModel)
	if langs, ok := lookup("SLUICE_OCR_LANGUAGES"); ok && langs != "" {
		c.AI.Languages = strings.Split(langs, ",")
	}

	// AWS settings are shared by the S3 store and Textract
	for _, target := range []*string{&c.Store.S3.Region, &c.AI.Region} {
		e.str("AWS_REGION", target)
	}
	for _, target := range []*string{&c.Store.S3.AccessKey, &c.AI.AccessKey} {
		e.str("AWS_ACCESS_KEY_ID", target)
	}
	for _, target := range []*string{&c.Store.S3.SecretKey, &c.AI.SecretKey} {
		e.str("AWS_SECRET_ACCESS_KEY", target)
	}

	e.str("SLUICE_LOG_LEVEL", &c.Log.Level)
	e.str("SLUICE_LOG_FILE", &c.Log.File)

	return e.err
}

// envReader collects the first parse error so callers can read many
// variables in a row.
type envReader struct {
	lookup LookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := e.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) fail(key, value string, err error) {
	e.err = fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, key, value, err)
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) int64(key string, dst *int64) {
	if v, ok := e.get(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = d
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = b
	}
}
