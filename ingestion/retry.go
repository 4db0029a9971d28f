package ingestion

import (
	"context"
	"time"

	"github.com/poiesic/sluice/core"
)

// RetryPolicy decides whether a failed attempt is retried and how long to
// wait first.
type RetryPolicy struct {
	// Limit is the number of additional attempts after the first one.
	Limit int

	// BaseDelay is the delay before the first retry. It doubles on each retry.
	BaseDelay time.Duration

	// MaxDelay caps the delay. Zero means uncapped.
	MaxDelay time.Duration
}

// Next reports whether another attempt should follow attempt number attempt
// (1-based) that failed with err, and the backoff before it.
// Terminal errors are never retried.
func (p RetryPolicy) Next(attempt int, err error) (bool, time.Duration) {
	if err == nil || core.IsTerminal(err) {
		return false, 0
	}
	if attempt < 1 || attempt > p.Limit {
		return false, 0
	}

	// Exponential backoff: BaseDelay * 2^(attempt-1)
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			break
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return true, delay
}

// MaxAttempts returns the total number of attempts a file can receive.
func (p RetryPolicy) MaxAttempts() int {
	if p.Limit < 0 {
		return 1
	}
	return p.Limit + 1
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
