package llm

import (
	"context"
	"errors"
)

// Client is the external generative capability: prompt text in, text out.
// Implementations must be safe for sequential reuse across stages.
type Client interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// ErrUnavailable means no generative capability is configured. Callers
// treat it as "use the deterministic path".
var ErrUnavailable = errors.New("llm: capability not configured")

// ErrEmptyResponse is returned when the provider answers with no text.
var ErrEmptyResponse = errors.New("llm: empty response")
