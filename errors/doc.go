/*
Package errors provides semantic error types for the tablestore library.

The package defines the error taxonomy of the query and batching core with
specific types that can be checked using the standard errors.Is() function or
the provided helper functions.

Common Errors:

	var (
	    ErrNotFound              = errors.New("row not found")
	    ErrAlreadyExists         = errors.New("row already exists")
	    ErrConflict              = errors.New("concurrency conflict")
	    ErrThrottled             = errors.New("request throttled")
	    ErrThrottleExhausted     = errors.New("throttle retry budget exhausted")
	    ErrUnsupportedExpression = errors.New("unsupported expression")
	)

Usage:

	// Check error class
	_, err := repo.Update(ctx, player)
	if err != nil {
	    if errors.IsConflict(err) {
	        // Reload and reconcile; conflicting writes are never auto-retried
	    }
	    return err
	}

	// Create typed errors
	err := errors.NewConflictError("PLAYER#42", "PROFILE")
	err := errors.NewUnsupportedExpressionError("method call", "ToUpper is not translatable")

ErrThrottled is the one transient signal in the taxonomy: providers wrap it
around their store-specific rate-limit errors, and the retry executor retries
nothing else. Cancellation is reported via context.Canceled and
context.DeadlineExceeded, never wrapped in a tablestore type.

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors
