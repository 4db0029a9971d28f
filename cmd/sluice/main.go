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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/sluice"
	"github.com/poiesic/sluice/config"
	"github.com/poiesic/sluice/ingestion"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configKey  = "config"
	logFileKey = "log-file"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and maps its outcome to a process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	err := app.RunContext(ctx, normalizeArgs(app, args))
	if err == nil {
		return ingestion.ExitOK
	}
	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		if msg := exit.Error(); msg != "" {
			fmt.Fprintln(stderr, "sluice:", msg)
		}
		return exit.ExitCode()
	}
	fmt.Fprintln(stderr, "sluice:", err)
	return ingestion.ExitFailure
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "sluice",
		Usage:     "Ingest a directory of documents and images into a content store",
		UsageText: "sluice [global options] [ingest] <dir>",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs to a rotated file instead of stderr",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
			},
		},
		Before: setup,
		After:  teardown,
		// Exit codes are mapped by run
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Process every new or changed file in a directory",
				ArgsUsage: "<dir>",
				Action:    ingestCommand,
				Flags:     ingestFlags(),
			},
			{
				Name:      "status",
				Usage:     "Show the run lock and per-file marker state of a directory",
				ArgsUsage: "<dir>",
				Action:    statusCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "List every file",
					},
				},
			},
			{
				Name:      "unlock",
				Usage:     "Remove a stale run lock",
				ArgsUsage: "<dir>",
				Action:    unlockCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Remove the lock even if its holder is alive",
					},
				},
			},
		},
	}
}

func ingestFlags() []cli.Flag {
	defaults := config.Default()
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "batch-size",
			Aliases: []string{"b"},
			Usage:   "Number of files processed concurrently",
			Value:   defaults.Ingest.BatchSize,
		},
		&cli.IntFlag{
			Name:  "retry-limit",
			Usage: "Retries after a failed attempt before a file is marked failed",
			Value: defaults.Ingest.RetryLimit,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: defaults.Ingest.RetryDelay,
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Print per-file progress",
		},
		&cli.IntFlag{
			Name:  "max-chunk-size",
			Usage: "Maximum characters per chunk",
			Value: defaults.Ingest.MaxChunkSize,
		},
		&cli.Int64Flag{
			Name:  "max-file-size",
			Usage: "Maximum source file size in bytes",
			Value: defaults.Ingest.MaxFileBytes,
		},
		&cli.DurationFlag{
			Name:  "lock-stale-after",
			Usage: "Age after which a lock without heartbeat may be reclaimed",
			Value: defaults.Ingest.LockStaleAfter,
		},
		&cli.StringFlag{
			Name:  "fingerprint",
			Usage: "Change detection: stat or content",
			Value: defaults.Ingest.Fingerprint,
		},
		&cli.StringFlag{
			Name:  "report-dir",
			Usage: "Directory for the run report (defaults to the ingested directory)",
		},
		&cli.StringFlag{
			Name:  "report-format",
			Usage: "Report format: csv or json",
			Value: defaults.Ingest.ReportFormat,
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "Content store: badger, postgres, s3 or memory",
			Value: defaults.Store.Backend,
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
			Value:   defaults.Store.Path,
		},
		&cli.StringFlag{
			Name:  "database-url",
			Usage: "PostgreSQL connection URL",
		},
		&cli.StringFlag{
			Name:  "s3-bucket",
			Usage: "S3 bucket for content objects",
		},
		&cli.StringFlag{
			Name:  "s3-prefix",
			Usage: "Key prefix inside the bucket",
		},
		&cli.StringFlag{
			Name:  "s3-endpoint",
			Usage: "Custom S3 endpoint URL",
		},
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible service host URL",
			Value: defaults.AI.Host,
		},
		&cli.StringFlag{
			Name:  "classifier-model",
			Usage: "Model used to classify images",
			Value: defaults.AI.ClassifierModel,
		},
		&cli.StringFlag{
			Name:  "ocr-backend",
			Usage: "Text recognizer: llm, textract, tesseract or none",
			Value: defaults.AI.OCRBackend,
		},
		&cli.StringFlag{
			Name:  "ocr-model",
			Usage: "Vision model used when ocr-backend is llm",
			Value: defaults.AI.OCRModel,
		},
		&cli.BoolFlag{
			Name:  "no-enrich",
			Usage: "Skip image classification and OCR",
		},
	}
}

// setup loads the configuration and installs the logger. Configuration
// precedence is defaults, YAML file, environment, then flags.
func setup(c *cli.Context) error {
	if err := config.LoadEnvFile(c.String("env-file"), c.IsSet("env-file")); err != nil {
		return cli.Exit(err.Error(), ingestion.ExitFailure)
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), ingestion.ExitFailure)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cli.Exit(err.Error(), ingestion.ExitFailure)
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-file") {
		cfg.Log.File = c.String("log-file")
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	if err := setupLogger(c, &cfg.Log); err != nil {
		return cli.Exit(err.Error(), ingestion.ExitFailure)
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func setupLogger(c *cli.Context, logCfg *config.LogConfig) error {
	levelStr := strings.ToLower(logCfg.Level)

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	var out io.Writer = c.App.ErrWriter
	if logCfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   logCfg.File,
			MaxSize:    logCfg.MaxSizeMB,
			MaxBackups: logCfg.MaxBackups,
			MaxAge:     logCfg.MaxAgeDays,
		}
		c.App.Metadata[logFileKey] = rotator
		out = rotator
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

func teardown(c *cli.Context) error {
	if rotator, ok := c.App.Metadata[logFileKey].(*lumberjack.Logger); ok {
		return rotator.Close()
	}
	return nil
}

func loadedConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// applyIngestFlags overrides configuration with explicitly set flags.
func applyIngestFlags(c *cli.Context, cfg *config.Config) {
	ints := map[string]*int{
		"batch-size":     &cfg.Ingest.BatchSize,
		"retry-limit":    &cfg.Ingest.RetryLimit,
		"max-chunk-size": &cfg.Ingest.MaxChunkSize,
	}
	for name, dst := range ints {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	durations := map[string]*time.Duration{
		"retry-delay":      &cfg.Ingest.RetryDelay,
		"lock-stale-after": &cfg.Ingest.LockStaleAfter,
	}
	for name, dst := range durations {
		if c.IsSet(name) {
			*dst = c.Duration(name)
		}
	}
	strs := map[string]*string{
		"fingerprint":      &cfg.Ingest.Fingerprint,
		"report-dir":       &cfg.Ingest.ReportDir,
		"report-format":    &cfg.Ingest.ReportFormat,
		"store":            &cfg.Store.Backend,
		"db":               &cfg.Store.Path,
		"database-url":     &cfg.Store.DatabaseURL,
		"s3-bucket":        &cfg.Store.S3.Bucket,
		"s3-prefix":        &cfg.Store.S3.Prefix,
		"s3-endpoint":      &cfg.Store.S3.Endpoint,
		"ai-host":          &cfg.AI.Host,
		"classifier-model": &cfg.AI.ClassifierModel,
		"ocr-backend":      &cfg.AI.OCRBackend,
		"ocr-model":        &cfg.AI.OCRModel,
	}
	for name, dst := range strs {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	if c.IsSet("max-file-size") {
		cfg.Ingest.MaxFileBytes = c.Int64("max-file-size")
	}
	if c.Bool("no-enrich") {
		cfg.Ingest.Enrich = false
	}
}

func dirArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit(fmt.Sprintf("expected exactly one directory, got %d arguments", c.NArg()), ingestion.ExitFailure)
	}
	return c.Args().First(), nil
}

func ingestCommand(c *cli.Context) error {
	dir, err := dirArg(c)
	if err != nil {
		return err
	}
	cfg := loadedConfig(c)
	applyIngestFlags(c, cfg)

	sys, err := sluice.Open(c.Context, cfg)
	if err != nil {
		return cli.Exit(err.Error(), ingestion.ExitFailure)
	}
	defer sys.Close()

	var opts []ingestion.Option
	if c.Bool("verbose") {
		opts = append(opts, ingestion.WithMonitor(ingestion.NewConsoleMonitor(c.App.ErrWriter)))
	}

	report, err := sys.Ingest(c.Context, dir, opts...)
	if report == nil {
		if c.Context.Err() != nil {
			return cli.Exit(err.Error(), ingestion.ExitCancelled)
		}
		return cli.Exit(err.Error(), ingestion.ExitFailure)
	}

	fmt.Fprintln(c.App.ErrWriter, report.Summary.String())
	if report.Path != "" {
		fmt.Fprintf(c.App.ErrWriter, "Report: %s\n", report.Path)
	}
	if err != nil {
		return cli.Exit(err.Error(), ingestion.ExitFailure)
	}
	if code := report.ExitCode(); code != ingestion.ExitOK {
		return cli.Exit("", code)
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	dir, err := dirArg(c)
	if err != nil {
		return err
	}
	status, err := sluice.Inspect(c.Context, loadedConfig(c), dir, slog.Default())
	if err != nil {
		return cli.Exit(err.Error(), ingestion.ExitFailure)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Directory: %s\n", status.Dir)
	if status.Lock == nil {
		fmt.Fprintln(out, "Lock:      none")
	} else {
		state := "live"
		if status.LockStale {
			state = "stale"
		}
		fmt.Fprintf(out, "Lock:      %s, held by %s (pid %d on %s), last heartbeat %s\n",
			state, status.Lock.Owner, status.Lock.PID, status.Lock.Host,
			status.Lock.HeartbeatAt.Local().Format(time.DateTime))
	}
	marked, changed, unmarked := status.Counts()
	fmt.Fprintf(out, "Files:     %d (%d marked, %d changed, %d unmarked)\n",
		len(status.Files), marked, changed, unmarked)

	if c.Bool("verbose") {
		for _, f := range status.Files {
			fmt.Fprintf(out, "  %-9s %-14s %s\n", f.State, f.Kind, f.Path)
		}
	}
	return nil
}

func unlockCommand(c *cli.Context) error {
	dir, err := dirArg(c)
	if err != nil {
		return err
	}
	info, err := sluice.Unlock(c.Context, loadedConfig(c), dir, c.Bool("force"), slog.Default())
	if errors.Is(err, sluice.ErrLockActive) {
		return cli.Exit(err.Error()+" (use --force to remove it)", ingestion.ExitFailure)
	}
	if err != nil {
		return cli.Exit(err.Error(), ingestion.ExitFailure)
	}
	fmt.Fprintf(c.App.Writer, "Removed lock held by %s (pid %d on %s)\n", info.Owner, info.PID, info.Host)
	return nil
}

// normalizeArgs inserts "ingest" after the global flags when the first
// remaining argument is not a command, so that "sluice <dir>" runs an ingest.
// Command flags typed after the directory are moved in front of it.
func normalizeArgs(app *cli.App, args []string) []string {
	global, valued := flagNames(app.Flags)

	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-h", "--help", "help", "h":
			return args
		}
		if strings.HasPrefix(arg, "-") && arg != "--" {
			name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
			if global[name] {
				if valued[name] && !hasValue {
					i++
				}
				continue
			}
		}

		cmd := app.Command(arg)
		rest := args[i+1:]
		if cmd == nil {
			cmd = app.Command("ingest")
			rest = args[i:]
		}
		out := make([]string, 0, len(args)+1)
		out = append(out, args[:i]...)
		out = append(out, cmd.Name)
		return append(out, flagsFirst(cmd.Flags, rest)...)
	}
	return args
}

// flagsFirst moves the flags of args, with their values, ahead of the
// positional arguments. Everything after "--" is left in place.
func flagsFirst(flags []cli.Flag, args []string) []string {
	_, valued := flagNames(flags)
	var named, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positional = append(positional, arg)
			continue
		}
		named = append(named, arg)
		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if valued[name] && !hasValue && i+1 < len(args) {
			i++
			named = append(named, args[i])
		}
	}
	return append(named, positional...)
}

// flagNames indexes flags by every name and alias and records which take a value.
func flagNames(flags []cli.Flag) (known, valued map[string]bool) {
	known = map[string]bool{}
	valued = map[string]bool{}
	for _, flag := range flags {
		_, isBool := flag.(*cli.BoolFlag)
		for _, name := range flag.Names() {
			known[name] = true
			valued[name] = !isBool
		}
	}
	return known, valued
}
