package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker tracks and reports how many files a run has finished.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	succeeded      int
	failed         int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// total: number of files in the run
// reportInterval: report progress every N files
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.succeeded = 0
	p.failed = 0
	p.lastReported = 0
}

// Done counts one finished file.
func (p *ProgressTracker) Done(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.current() >= p.total {
		return
	}
	if ok {
		p.succeeded++
	} else {
		p.failed++
	}

	// Report if we've crossed a report interval
	if p.current()-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current()
	}
}

// Current returns the number of finished files.
func (p *ProgressTracker) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current()
}

// Finish prints the final progress line. Files that never finished are not
// counted.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
	p.started = false
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

func (p *ProgressTracker) current() int {
	return p.succeeded + p.failed
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	current := p.current()
	rate := 0.0
	if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 {
		rate = float64(current) / elapsed
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %d ok, %d failed - %.1f files/s",
		current, p.total, percentage, p.succeeded, p.failed, rate)
}
