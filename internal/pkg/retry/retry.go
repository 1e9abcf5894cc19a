// Package retry wraps fallible remote calls with bounded retries.
// A classifier decides per error whether to give up, treat the call as
// already done, honor a server-provided retry-after hint, or back off
// exponentially and try again.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Class is the retry classification of an error.
type Class int

const (
	// ClassTransient retries with exponential backoff.
	ClassTransient Class = iota
	// ClassFatal stops immediately and returns the error.
	ClassFatal
	// ClassOK treats the operation as succeeded (e.g. deleting a message
	// that is already gone).
	ClassOK
)

// Decision is what a Classifier returns for one error.
// RetryAfter > 0 overrides the backoff schedule with a server hint;
// it only applies to ClassTransient.
type Decision struct {
	Class      Class
	RetryAfter time.Duration
}

// Classifier maps an operation error to a retry Decision.
type Classifier func(error) Decision

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy is tuned for Telegram API calls: a handful of attempts,
// sub-second initial backoff, capped well below the callback timeout.
var DefaultPolicy = Policy{
	MaxAttempts:     5,
	InitialInterval: 200 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// Do runs op under DefaultPolicy.
func Do(ctx context.Context, op func() error, classify Classifier) error {
	return DoWithPolicy(ctx, DefaultPolicy, op, classify)
}

// DoWithPolicy runs op until it succeeds, the classifier stops the loop, the
// attempt budget is spent, or ctx is cancelled. The returned error is nil for
// success and for errors classified ClassOK.
func DoWithPolicy(ctx context.Context, p Policy, op func() error, classify Classifier) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.MaxInterval = p.MaxInterval
	bo.Reset()

	var lastErr error
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		d := classify(err)
		switch d.Class {
		case ClassOK:
			return nil
		case ClassFatal:
			return err
		}

		lastErr = err
		if attempt >= p.MaxAttempts {
			return lastErr
		}

		wait := bo.NextBackOff()
		if d.RetryAfter > 0 {
			wait = d.RetryAfter
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
