package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/poiesic/sluice/core"
)

// Monitor provides hooks to observe a run.
// Implementations must be safe for concurrent use; file hooks are called
// from worker goroutines.
type Monitor interface {
	RunStarted(dir string, total int)
	AttemptFailed(task *core.FileTask, err error, retry bool, delay time.Duration)
	FileFinished(outcome *core.ProcessingOutcome)
	RunFinished(summary Summary)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) RunStarted(_ string, _ int)                                       {}
func (n *noopMonitor) AttemptFailed(_ *core.FileTask, _ error, _ bool, _ time.Duration) {}
func (n *noopMonitor) FileFinished(_ *core.ProcessingOutcome)                           {}
func (n *noopMonitor) RunFinished(_ Summary)                                            {}

// ConsoleMonitor prints one line per finished file and a progress line.
type ConsoleMonitor struct {
	w        io.Writer
	mu       sync.Mutex
	progress *ProgressTracker
}

var _ Monitor = (*ConsoleMonitor)(nil)

// NewConsoleMonitor creates a monitor writing to w.
func NewConsoleMonitor(w io.Writer) *ConsoleMonitor {
	return &ConsoleMonitor{w: w}
}

func (m *ConsoleMonitor) RunStarted(dir string, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.w, "Ingesting %d files from %s\n", total, dir)
	m.progress = NewProgressTracker(m.w, total, 1)
	m.progress.Start()
}

func (m *ConsoleMonitor) AttemptFailed(task *core.FileTask, err error, retry bool, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if retry {
		fmt.Fprintf(m.w, "\r  retry  %s (attempt %d failed, next in %s): %v\n", task.Path, task.Attempts, delay, err)
	}
}

func (m *ConsoleMonitor) FileFinished(outcome *core.ProcessingOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch outcome.Status {
	case core.StatusSucceeded:
		fmt.Fprintf(m.w, "\r  ok     %s (%d chunks, %d images, %d attempts, %s)\n",
			outcome.Path, outcome.ChunksWritten, outcome.ImagesWritten, outcome.Attempts,
			outcome.Duration().Round(time.Millisecond))
	case core.StatusFailed:
		fmt.Fprintf(m.w, "\r  FAILED %s [%s] after %d attempts: %s\n",
			outcome.Path, outcome.ErrorKind, outcome.Attempts, outcome.Error)
	default:
		fmt.Fprintf(m.w, "\r  skip   %s [%s]\n", outcome.Path, outcome.ErrorKind)
		return
	}
	if m.progress != nil {
		m.progress.Done(outcome.Status == core.StatusSucceeded)
	}
}

func (m *ConsoleMonitor) RunFinished(summary Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.progress != nil {
		m.progress.Finish()
		m.progress = nil
	}
}
