/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "github.com/tidemark/tablestore/errors"
)

func throttled() error {
	return fmt.Errorf("rate limited: %w", tserrors.ErrThrottled)
}

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := testRetryPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryRecoversFromThrottling(t *testing.T) {
	calls := 0
	err := testRetryPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return throttled()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsBudget(t *testing.T) {
	policy := testRetryPolicy()
	calls := 0
	err := policy.Do(context.Background(), func(context.Context) error {
		calls++
		return throttled()
	})

	require.Error(t, err)
	assert.Equal(t, policy.MaxAttempts, calls)
	assert.True(t, tserrors.IsThrottleExhausted(err))

	var exhausted *tserrors.ThrottleExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, policy.MaxAttempts, exhausted.Attempts)
	// The last throttling error stays reachable through the chain.
	assert.True(t, tserrors.IsThrottled(err))
}

func TestRetryDoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := testRetryPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryConflictIsNotRetried(t *testing.T) {
	calls := 0
	err := testRetryPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return tserrors.NewConflictError("pk", "rk")
	})
	assert.True(t, tserrors.IsConflict(err))
	assert.Equal(t, 1, calls)
}

func TestRetryObservesCancellationBeforeAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := testRetryPolicy().Do(ctx, func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestRetryObservesCancellationDuringBackoff(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 10,
		MinBackoff:  time.Hour,
		MaxBackoff:  time.Hour,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- policy.Do(ctx, func(context.Context) error {
			return throttled()
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not abort the backoff wait")
	}
}

func TestDefaultRetryPolicyConstants(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 25, p.MaxAttempts)
	assert.Equal(t, time.Second, p.MinBackoff)
	assert.Equal(t, 3500*time.Millisecond, p.MaxBackoff)
}

func TestBackoffStaysInRange(t *testing.T) {
	p := RetryPolicy{MinBackoff: 100 * time.Millisecond, MaxBackoff: 200 * time.Millisecond}
	for i := 0; i < 1000; i++ {
		w := p.backoff()
		require.GreaterOrEqual(t, w, p.MinBackoff)
		require.Less(t, w, p.MaxBackoff)
	}
}
