package processor

import (
	"errors"
	"math/rand"
	"time"
)

// ErrInvalidRetryPolicy is returned by RetryPolicy.Validate for malformed
// configuration.
var ErrInvalidRetryPolicy = errors.New("processor: invalid retry policy")

// RetryPolicy configures RetrySubmit's backoff when queueCommand rejects a
// submission because the mailbox is occupied.
//
// The Processor itself never retries: queueCommand always returns
// immediately with ErrMailboxFull rather than blocking the real-time
// thread. RetryPolicy exists purely for callers on the peer side of the
// mailbox that want bounded, jittered retry instead of hand-rolled loops.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of submission attempts, including
	// the first. Must be >= 1.
	MaxAttempts int

	// BaseDelay is the base delay for exponential backoff between
	// attempts.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth of the backoff delay.
	MaxDelay time.Duration
}

func defaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		MaxDelay:    50 * time.Millisecond,
	}
}

// Validate reports whether rp is internally consistent.
func (rp RetryPolicy) Validate() error {
	if rp.MaxAttempts < 1 {
		return ErrInvalidRetryPolicy
	}
	if rp.MaxDelay > 0 && rp.BaseDelay > 0 && rp.MaxDelay < rp.BaseDelay {
		return ErrInvalidRetryPolicy
	}
	return nil
}

// computeBackoff returns the delay before retry attempt (0-based), using
// exponential backoff capped at maxDelay plus jitter in [0, base).
func computeBackoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base * (1 << uint(attempt))
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(base))) // #nosec G404 -- retry jitter, not security
	return delay + jitter
}

// RetrySubmit calls queueCommand repeatedly under rp's backoff until it
// succeeds or MaxAttempts is exhausted. It never blocks the Processor
// itself — only the calling goroutine sleeps between attempts.
func RetrySubmit(p *Processor, cmd Command, rp RetryPolicy) error {
	if err := rp.Validate(); err != nil {
		return err
	}
	var lastErr error
	for attempt := 0; attempt < rp.MaxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(computeBackoff(attempt-1, rp.BaseDelay, rp.MaxDelay))
		}
		if err := p.QueueCommand(cmd); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
