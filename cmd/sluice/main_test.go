package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/sluice/ingestion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runCLI(t *testing.T, ctx context.Context, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(ctx, append([]string{"sluice", "--log-level", "error"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func memoryArgs(reportDir string) []string {
	return []string{"--store", "memory", "--no-enrich", "--retry-delay", "1ms", "--report-dir", reportDir}
}

func TestNormalizeArgs(t *testing.T) {
	app := newApp(nil, nil)
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"sluice", "docs"}, []string{"sluice", "ingest", "docs"}},
		{[]string{"sluice", "-v", "docs"}, []string{"sluice", "ingest", "-v", "docs"}},
		{[]string{"sluice", "--log-level", "debug", "docs"}, []string{"sluice", "--log-level", "debug", "ingest", "docs"}},
		{[]string{"sluice", "--config=s.yaml", "--batch-size", "4", "docs"}, []string{"sluice", "--config=s.yaml", "ingest", "--batch-size", "4", "docs"}},
		{[]string{"sluice", "ingest", "docs"}, []string{"sluice", "ingest", "docs"}},
		{[]string{"sluice", "-l", "warn", "status", "docs"}, []string{"sluice", "-l", "warn", "status", "docs"}},
		{[]string{"sluice", "ingest", "docs", "--batch-size", "2"}, []string{"sluice", "ingest", "--batch-size", "2", "docs"}},
		{[]string{"sluice", "docs", "--verbose"}, []string{"sluice", "ingest", "--verbose", "docs"}},
		{[]string{"sluice", "docs", "--retry-limit=1", "-v"}, []string{"sluice", "ingest", "--retry-limit=1", "-v", "docs"}},
		{[]string{"sluice", "unlock", "docs", "--force"}, []string{"sluice", "unlock", "--force", "docs"}},
		{[]string{"sluice", "ingest", "docs", "--", "--odd"}, []string{"sluice", "ingest", "docs", "--", "--odd"}},
		{[]string{"sluice", "--help"}, []string{"sluice", "--help"}},
		{[]string{"sluice"}, []string{"sluice"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeArgs(app, tt.args))
		})
	}
}

func TestIngestFlagDefaults(t *testing.T) {
	flags := map[string]cli.Flag{}
	for _, flag := range ingestFlags() {
		flags[flag.Names()[0]] = flag
	}

	batch, ok := flags["batch-size"].(*cli.IntFlag)
	require.True(t, ok)
	assert.Equal(t, 3, batch.Value)

	retry, ok := flags["retry-limit"].(*cli.IntFlag)
	require.True(t, ok)
	assert.Equal(t, 3, retry.Value)

	verbose, ok := flags["verbose"].(*cli.BoolFlag)
	require.True(t, ok)
	assert.Contains(t, verbose.Aliases, "v")

	chunk, ok := flags["max-chunk-size"].(*cli.IntFlag)
	require.True(t, ok)
	assert.Equal(t, 1000, chunk.Value)
}

func TestIngest_Success(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("Hello there. General Kenobi."), 0o644))

	code, _, stderr := runCLI(t, context.Background(), append([]string{"ingest"}, append(memoryArgs(t.TempDir()), dir)...)...)
	assert.Equal(t, ingestion.ExitOK, code, stderr)
	assert.Contains(t, stderr, "1 succeeded")
	assert.Contains(t, stderr, "Report: ")
	assert.FileExists(t, filepath.Join(dir, ".notes.txt.sluice"))
}

func TestIngest_DefaultCommandWithFailure(t *testing.T) {
	dir := t.TempDir()
	reportDir := t.TempDir()
	text := strings.Repeat("word ", 399) + "done."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(text), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644))

	args := append([]string{"-v", "--batch-size", "2", "--retry-limit", "1"}, memoryArgs(reportDir)...)
	code, _, stderr := runCLI(t, context.Background(), append(args, dir)...)
	assert.Equal(t, ingestion.ExitFailure, code, stderr)
	assert.Contains(t, stderr, "1 succeeded, 1 failed")
	assert.Contains(t, stderr, "2 chunks")
	assert.NoFileExists(t, filepath.Join(dir, ".broken.png.sluice"))

	reports, err := filepath.Glob(filepath.Join(reportDir, "sluice-report-*.csv"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	f, err := os.Open(reports[0])
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header plus one row per file")
}

func TestIngest_FlagsAfterDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("Some text."), 0o644))

	args := append([]string{"ingest", dir, "--batch-size", "2"}, memoryArgs(t.TempDir())...)
	code, _, stderr := runCLI(t, context.Background(), args...)
	assert.Equal(t, ingestion.ExitOK, code, stderr)
	assert.Contains(t, stderr, "1 succeeded")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "more.txt"), []byte("More text."), 0o644))
	args = append(append([]string{dir}, memoryArgs(t.TempDir())...), "--verbose")
	code, _, stderr = runCLI(t, context.Background(), args...)
	assert.Equal(t, ingestion.ExitOK, code, stderr)
	assert.Contains(t, stderr, "Ingesting 1 files")
}

func TestIngest_Cancelled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code, _, stderr := runCLI(t, ctx, append(memoryArgs(t.TempDir()), dir)...)
	assert.Equal(t, ingestion.ExitCancelled, code, stderr)
}

func TestIngest_SetupErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing directory", []string{"ingest", "--store", "memory", "--no-enrich"}, "expected exactly one directory"},
		{"unknown store", []string{"ingest", "--store", "floppy", t.TempDir()}, "unknown store"},
		{"bad batch size", []string{"ingest", "--store", "memory", "--no-enrich", "--batch-size", "0", t.TempDir()}, "invalid configuration"},
		{"unreadable directory", []string{"ingest", "--store", "memory", "--no-enrich", filepath.Join(t.TempDir(), "missing")}, "directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, context.Background(), tt.args...)
			assert.Equal(t, ingestion.ExitFailure, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestInvalidLogLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"sluice", "--log-level", "loud", "status", t.TempDir()}, &stdout, &stderr)
	assert.Equal(t, ingestion.ExitFailure, code)
	assert.Contains(t, stderr.String(), "log level")
}

func TestStatusAndUnlock(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o644))

	code, stdout, stderr := runCLI(t, context.Background(), "status", "-v", dir)
	require.Equal(t, ingestion.ExitOK, code, stderr)
	assert.Contains(t, stdout, "Lock:      none")
	assert.Contains(t, stdout, "1 unmarked")
	assert.Contains(t, stdout, "a.txt")

	code, _, stderr = runCLI(t, context.Background(), "unlock", dir)
	assert.Equal(t, ingestion.ExitFailure, code)
	assert.Contains(t, stderr, "not locked")
}
