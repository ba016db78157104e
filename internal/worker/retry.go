package worker

import (
	"math"
	"time"
)

// RetryPolicy defines exponential backoff parameters for sheet sync tasks.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultSheetRetryPolicy matches the sheet sync cadence: the Sheets API
// throttles per-minute, so delays cap at one minute and a task gets five
// attempts before the dead letter queue.
func DefaultSheetRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  2 * time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2,
	}
}

// withDefaults fills zero fields from the sheet sync defaults.
func (r RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultSheetRetryPolicy()
	if r.MaxRetries == 0 {
		r.MaxRetries = def.MaxRetries
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = def.InitialDelay
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = def.MaxDelay
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = def.BackoffFactor
	}
	return r
}

// NextDelay returns the backoff delay for a given attempt (1-based),
// clamped to MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	r = r.withDefaults()
	if attempt < 1 {
		attempt = 1
	}

	d := time.Duration(float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1)))
	if d > r.MaxDelay || d <= 0 {
		d = r.MaxDelay
	}
	return d
}
