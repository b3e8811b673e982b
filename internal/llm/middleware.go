package llm

import (
	"context"

	"go.uber.org/zap"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (logging, hooks, etc.).
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// WithLogging logs request size and errors.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Client) Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Client
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Generate(ctx context.Context, prompt string) (string, error) {
	phase := PhaseFrom(ctx)
	l.log.Debug("LLM request", zap.String("phase", phase), zap.String("client", l.next.Name()), zap.Int("bytes", len(prompt)))
	text, err := l.next.Generate(ctx, prompt)
	if err != nil {
		l.log.Warn("LLM error", zap.String("phase", phase), zap.Error(err))
		return text, err
	}
	l.log.Debug("LLM response", zap.String("phase", phase), zap.Int("bytes", len(text)))
	return text, nil
}

// WithHooks calls HookFrom(ctx).Before/After around Generate.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next Client) Client {
		return &hooked{next: next}
	}
}

type hooked struct{ next Client }

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }
func (h *hooked) Generate(ctx context.Context, prompt string) (string, error) {
	if hook := HookFrom(ctx); hook != nil {
		hook.Before(ctx, PhaseFrom(ctx), prompt)
	}
	text, err := h.next.Generate(ctx, prompt)
	if hook := HookFrom(ctx); hook != nil {
		hook.After(ctx, PhaseFrom(ctx), text, err)
	}
	return text, err
}
