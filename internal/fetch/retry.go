package fetch

import (
	"context"
	"math"
	"time"
)

// Clock abstracts waiting so retry behaviour can be tested without sleeping.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// RetryPolicy describes exponential backoff between fetch attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 5
	MaxAttempts int

	// BaseDelay is the wait after the first failed attempt.
	// Default: 1s
	BaseDelay time.Duration

	// MaxDelay caps the wait between attempts.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier scales the delay after every failed attempt.
	// Default: 2
	Multiplier float64

	// Clock is used for waiting. Default: the wall clock.
	Clock Clock
}

// DefaultRetryPolicy returns a policy with sensible defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2,
		Clock:       realClock{},
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = d.MaxDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = d.Multiplier
	}
	if p.Clock == nil {
		p.Clock = d.Clock
	}
	return p
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do runs op until it succeeds, returns a non-retryable error, the attempts
// are exhausted or ctx is done. It returns the number of attempts made and
// the last error.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	p = p.withDefaults()

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return attempt - 1, ctx.Err()
			case <-p.Clock.After(p.Delay(attempt - 1)):
			}
		}

		err = op(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		if !IsRetryable(err) || ctx.Err() != nil {
			return attempt, err
		}
	}
	return p.MaxAttempts, err
}
