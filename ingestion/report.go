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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/sluice/core"
)

// Process exit codes derived from a report.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitCancelled = 130
)

// Summary aggregates the outcomes of a run.
type Summary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Pending   int           `json:"pending"`
	Chunks    int           `json:"chunks"`
	Images    int           `json:"images"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Cancelled bool          `json:"cancelled"`
}

// String renders the one-line summary printed at the end of a run.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d files: %d succeeded, %d failed", s.Total, s.Succeeded, s.Failed)
	if s.Pending > 0 {
		fmt.Fprintf(&b, ", %d pending", s.Pending)
	}
	fmt.Fprintf(&b, "; %d chunks, %d images in %s", s.Chunks, s.Images, s.Elapsed.Round(time.Millisecond))
	if s.Cancelled {
		b.WriteString(" (cancelled)")
	}
	return b.String()
}

// Report is the final result of a run.
type Report struct {
	Dir       string
	StartedAt time.Time
	Outcomes  []*core.ProcessingOutcome // sorted by path
	Summary   Summary

	// Path is where the report file was written, empty if it was not.
	Path string
}

// ExitCode maps the report to a process exit code.
func (r *Report) ExitCode() int {
	switch {
	case r.Summary.Cancelled:
		return ExitCancelled
	case r.Summary.Failed > 0 || r.Summary.Pending > 0:
		return ExitFailure
	default:
		return ExitOK
	}
}

// RunRecord converts the report into a run history entry.
func (r *Report) RunRecord() *core.RunRecord {
	return &core.RunRecord{
		Dir:        r.Dir,
		StartedAt:  r.StartedAt,
		FinishedAt: r.StartedAt.Add(r.Summary.Elapsed),
		Total:      r.Summary.Total,
		Succeeded:  r.Summary.Succeeded,
		Failed:     r.Summary.Failed,
		Pending:    r.Summary.Pending,
		Chunks:     r.Summary.Chunks,
		Images:     r.Summary.Images,
		Cancelled:  r.Summary.Cancelled,
		ReportPath: r.Path,
	}
}

// Reporter collects one outcome per file. It is safe for concurrent use.
type Reporter struct {
	mu        sync.Mutex
	outcomes  map[string]*core.ProcessingOutcome
	finalized bool
}

// NewReporter creates an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{outcomes: make(map[string]*core.ProcessingOutcome)}
}

// Record stores the outcome of one file.
func (r *Reporter) Record(outcome *core.ProcessingOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return ErrReportFinalized
	}
	if _, ok := r.outcomes[outcome.Path]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateOutcome, outcome.Path)
	}
	r.outcomes[outcome.Path] = outcome
	return nil
}

// Len returns the number of recorded outcomes.
func (r *Reporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

// Interrupted reports whether any recorded file was cut short by
// cancellation.
func (r *Reporter) Interrupted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.outcomes {
		if o.ErrorKind == core.KindCancelled {
			return true
		}
	}
	return false
}

// Finalize builds the report. Later calls to Record fail.
func (r *Reporter) Finalize(dir string, startedAt time.Time, elapsed time.Duration, cancelled bool) *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = true

	report := &Report{
		Dir:       dir,
		StartedAt: startedAt,
		Outcomes:  make([]*core.ProcessingOutcome, 0, len(r.outcomes)),
		Summary:   Summary{Elapsed: elapsed, Cancelled: cancelled},
	}
	for _, o := range r.outcomes {
		report.Outcomes = append(report.Outcomes, o)
	}
	slices.SortFunc(report.Outcomes, func(a, b *core.ProcessingOutcome) int {
		return strings.Compare(a.Path, b.Path)
	})

	for _, o := range report.Outcomes {
		report.Summary.Total++
		switch o.Status {
		case core.StatusSucceeded:
			report.Summary.Succeeded++
		case core.StatusFailed:
			report.Summary.Failed++
		default:
			report.Summary.Pending++
		}
		report.Summary.Chunks += o.ChunksWritten
		report.Summary.Images += o.ImagesWritten
	}
	return report
}

// ReportWriter persists a report and returns where it was written.
type ReportWriter func(report *Report) (string, error)

// FileReportWriter writes reports into dir, or into the run's directory when
// dir is empty, in the given format.
func FileReportWriter(dir, format string) ReportWriter {
	return func(report *Report) (string, error) {
		target := dir
		if target == "" {
			target = report.Dir
		}
		return WriteReport(report, target, format)
	}
}

var reportColumns = []string{
	"path", "kind", "status", "attempts", "chunks_written", "images_written",
	"error_kind", "error", "started_at", "finished_at", "duration_ms",
}

// ReportFileName returns the report file name for a run started at t.
func ReportFileName(t time.Time, format string) string {
	return "sluice-report-" + t.UTC().Format("20060102T150405Z") + "." + format
}

// WriteReport writes the report to dir as CSV or JSON and returns the file path.
func WriteReport(report *Report, dir, format string) (string, error) {
	path := filepath.Join(dir, ReportFileName(report.StartedAt, format))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}

	switch format {
	case ReportJSON:
		err = writeJSONReport(f, report)
	case ReportCSV:
		err = writeCSVReport(f, report)
	default:
		err = fmt.Errorf("%w: unknown report format %q", ErrInvalidConfig, format)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func writeCSVReport(f *os.File, report *Report) error {
	w := csv.NewWriter(f)
	if err := w.Write(reportColumns); err != nil {
		return err
	}
	for _, o := range report.Outcomes {
		row := []string{
			o.Path,
			o.Kind.String(),
			string(o.Status),
			strconv.Itoa(o.Attempts),
			strconv.Itoa(o.ChunksWritten),
			strconv.Itoa(o.ImagesWritten),
			string(o.ErrorKind),
			o.Error,
			formatTime(o.StartedAt),
			formatTime(o.FinishedAt),
			strconv.FormatInt(o.Duration().Milliseconds(), 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

type jsonOutcome struct {
	Path          string `json:"path"`
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	Attempts      int    `json:"attempts"`
	ChunksWritten int    `json:"chunks_written"`
	ImagesWritten int    `json:"images_written"`
	ErrorKind     string `json:"error_kind,omitempty"`
	Error         string `json:"error,omitempty"`
	StartedAt     string `json:"started_at,omitempty"`
	FinishedAt    string `json:"finished_at,omitempty"`
	DurationMS    int64  `json:"duration_ms"`
}

type jsonReport struct {
	Dir       string        `json:"dir"`
	StartedAt string        `json:"started_at"`
	Summary   Summary       `json:"summary"`
	Files     []jsonOutcome `json:"files"`
}

func writeJSONReport(f *os.File, report *Report) error {
	out := jsonReport{
		Dir:       report.Dir,
		StartedAt: formatTime(report.StartedAt),
		Summary:   report.Summary,
		Files:     make([]jsonOutcome, 0, len(report.Outcomes)),
	}
	for _, o := range report.Outcomes {
		out.Files = append(out.Files, jsonOutcome{
			Path:          o.Path,
			Kind:          o.Kind.String(),
			Status:        string(o.Status),
			Attempts:      o.Attempts,
			ChunksWritten: o.ChunksWritten,
			ImagesWritten: o.ImagesWritten,
			ErrorKind:     string(o.ErrorKind),
			Error:         o.Error,
			StartedAt:     formatTime(o.StartedAt),
			FinishedAt:    formatTime(o.FinishedAt),
			DurationMS:    o.Duration().Milliseconds(),
		})
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
