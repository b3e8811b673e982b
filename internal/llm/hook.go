package llm

import (
	"context"
	"sync"
)

type PromptHook interface {
	Before(ctx context.Context, phase, prompt string)
	After(ctx context.Context, phase, text string, err error)
}

type ctxKeyHook struct{}
type ctxKeyPhase struct{}

// WithHook attaches a PromptHook to the context used by Generate.
func WithHook(base Client, hook PromptHook) Client {
	return &hookAttached{base: base, hook: hook}
}

type hookAttached struct {
	base Client
	hook PromptHook
}

func (h *hookAttached) Name() string { return h.base.Name() }
func (h *hookAttached) Close() error { return h.base.Close() }

func (h *hookAttached) Generate(ctx context.Context, prompt string) (string, error) {
	ctx = context.WithValue(ctx, ctxKeyHook{}, h.hook)
	return h.base.Generate(ctx, prompt)
}

func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// HookFrom returns the hook stored in the context.
func HookFrom(ctx context.Context) PromptHook {
	if v := ctx.Value(ctxKeyHook{}); v != nil {
		if h, ok := v.(PromptHook); ok {
			return h
		}
	}
	return nil
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyPhase{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}

// CallCounter is a PromptHook that counts completed calls per phase.
type CallCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewCallCounter() *CallCounter {
	return &CallCounter{counts: map[string]int{}}
}

func (c *CallCounter) Before(context.Context, string, string) {}

func (c *CallCounter) After(_ context.Context, phase, _ string, _ error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[phase]++
}

// Count returns the calls recorded for phase.
func (c *CallCounter) Count(phase string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[phase]
}

// Total returns all recorded calls.
func (c *CallCounter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}
