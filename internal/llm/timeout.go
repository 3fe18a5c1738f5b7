package llm

import (
	"context"
	"errors"
	"time"
)

// TimeoutProvider bounds every attempt with its own deadline. A deadline
// hit inside the attempt is reported as *ErrTimeout so the retry layer
// can tell it apart from the caller's own cancellation.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps a Provider with a per-attempt deadline. A zero or
// negative timeout returns p unchanged.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	if timeout <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: timeout}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		resp *Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := t.inner.Generate(attemptCtx, req)
		done <- result{resp, err}
	}()

	// The inner call may ignore its context; stop waiting on it either way.
	select {
	case r := <-done:
		if r.err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, &ErrTimeout{After: t.timeout, Err: r.err}
		}
		return r.resp, r.err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ErrTimeout{After: t.timeout, Err: attemptCtx.Err()}
	}
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
