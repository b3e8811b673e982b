package llm

import (
	"context"
	"errors"
	"time"
)

// rpsLimiter is a token bucket allowing at most rps requests per second
// with the given burst.
type rpsLimiter struct {
	tokens chan struct{}
	stopCh chan struct{}
}

// newRPSLimiter returns nil when rps <= 0; a nil limiter never blocks.
func newRPSLimiter(rps float64, burst int) *rpsLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	l := &rpsLimiter{
		tokens: make(chan struct{}, burst),
		stopCh: make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		l.tokens <- struct{}{}
	}

	period := time.Duration(float64(time.Second) / rps)
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case l.tokens <- struct{}{}:
				default:
				}
			case <-l.stopCh:
				return
			}
		}
	}()
	return l
}

// Acquire blocks until a token is available or the context is done.
func (l *rpsLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		return errLimiterStopped
	case <-l.tokens:
		return nil
	}
}

func (l *rpsLimiter) Stop() {
	if l == nil {
		return
	}
	close(l.stopCh)
}

var errLimiterStopped = errors.New("llm: rate limiter stopped")

// WithRateLimit throttles Generate to rps calls per second. Close stops
// the limiter. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		l := newRPSLimiter(rps, burst)
		if l == nil {
			return next
		}
		return &limited{next: next, lim: l}
	}
}

type limited struct {
	next Client
	lim  *rpsLimiter
}

func (l *limited) Name() string { return l.next.Name() }

func (l *limited) Close() error {
	l.lim.Stop()
	return l.next.Close()
}

func (l *limited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := l.lim.Acquire(ctx); err != nil {
		return "", err
	}
	return l.next.Generate(ctx, prompt)
}
