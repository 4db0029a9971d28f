package ingestion

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 4, 1)

	tracker.Start()
	assert.True(t, tracker.started, "should be started")

	tracker.Done(true)
	tracker.Done(true)
	tracker.Done(false)
	tracker.Done(true)

	time.Sleep(time.Millisecond)
	assert.Greater(t, tracker.Elapsed(), time.Duration(0), "elapsed time should be positive")

	output := buf.String()
	assert.Contains(t, output, "4/4", "should show completion")
	assert.Contains(t, output, "100.0%", "should show 100%")
	assert.Contains(t, output, "3 ok, 1 failed")
}

func TestProgressTracker_Interval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 5)

	tracker.Start()
	for i := 0; i < 4; i++ {
		tracker.Done(true)
	}
	assert.Empty(t, buf.String(), "should not report before the interval")

	tracker.Done(true)
	assert.Contains(t, buf.String(), "5/10")
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 2, 1)

	tracker.Start()
	tracker.Done(true)
	tracker.Done(true)
	tracker.Done(true)
	assert.Equal(t, 2, tracker.Current())
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 100)

	tracker.Start()
	tracker.Done(true)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "1/10", "finish reports files actually done")
	assert.True(t, strings.HasSuffix(output, "\n"), "finish should print newline")
	assert.Zero(t, tracker.Elapsed(), "finished tracker is stopped")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 1)

	tracker.Done(true)
	tracker.Finish()

	assert.Empty(t, buf.String(), "should not output anything when not started")
	assert.Zero(t, tracker.Current())
}
