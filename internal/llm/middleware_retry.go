package llm

import (
	"context"
	"errors"
	"time"
)

// WithRetry retries Generate up to maxAttempts with exponential backoff
// starting at baseDelay. ErrUnavailable and context errors are not retried.
func WithRetry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Generate(ctx context.Context, prompt string) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		text, err := r.next.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, ErrUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		last = err
		if i == r.max-1 {
			break
		}
		t := time.NewTimer(r.base * time.Duration(1<<i))
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return "", last
}
