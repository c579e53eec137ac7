package resilience

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when an operation does not settle inside its window.
var ErrTimeout = errors.New("operation timed out")

// WithTimeout runs fn under a deadline of d. The operation receives a context
// that is cancelled when the window closes, but a store that ignores its
// context still cannot hold the caller: the late result is discarded.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}

	opCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		v, err := fn(opCtx)
		done <- result{v, err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, ErrTimeout
		}
		return r.v, r.err
	case <-opCtx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, ErrTimeout
	}
}
