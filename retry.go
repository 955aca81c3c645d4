/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	tserrors "github.com/tidemark/tablestore/errors"
)

// Retry defaults. The backoff range is uniform, not exponential: the store's
// throttling is a rolling rate limit, so spreading retries evenly works
// better than synchronized doubling.
const (
	DefaultRetryAttempts = 25
	DefaultMinBackoff    = 1 * time.Second
	DefaultMaxBackoff    = 3500 * time.Millisecond
)

// RetryPolicy wraps one physical request with a bounded retry budget against
// the store's transient throttling signal. Every other failure propagates
// immediately. Each call's budget is independent; there is no circuit
// breaker, so sustained throttling degrades throughput linearly but never
// caps concurrent callers.
type RetryPolicy struct {
	// MaxAttempts is the total attempt budget, first try included.
	MaxAttempts int
	// MinBackoff and MaxBackoff bound the uniform random wait between attempts.
	MinBackoff time.Duration
	MaxBackoff time.Duration
	// Logger, when set, records throttled attempts at debug level.
	Logger *log.Logger
}

// DefaultRetryPolicy returns the stock policy: 25 attempts, 1.0–3.5 s backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultRetryAttempts,
		MinBackoff:  DefaultMinBackoff,
		MaxBackoff:  DefaultMaxBackoff,
	}
}

// Do runs op, retrying while it reports throttling, until the budget is
// exhausted. Cancellation observed before an attempt or during a backoff
// wait aborts with the context's error, never silently.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if !tserrors.IsThrottled(err) {
			return err
		}
		last = err

		if attempt == attempts {
			break
		}

		wait := p.backoff()
		if p.Logger != nil {
			p.Logger.Debug("throttled, backing off", "attempt", attempt, "wait", wait)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return tserrors.NewThrottleExhaustedError(attempts, last)
}

func (p RetryPolicy) backoff() time.Duration {
	min, max := p.MinBackoff, p.MaxBackoff
	if min <= 0 {
		min = DefaultMinBackoff
	}
	if max < min {
		max = min
	}
	if max == min {
		return min
	}
	return min + rand.N(max-min)
}
