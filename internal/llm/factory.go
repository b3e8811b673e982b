package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	ProviderGemini = "gemini"
	ProviderFake   = "fake"
	ProviderNone   = "none"
)

type Options struct {
	Provider string
	Model    string
	APIKey   string
	// RPS caps provider calls per second; 0 disables the limit.
	RPS float64
	// MaxRetries is the number of transient-error retries per call.
	MaxRetries int
}

// NewFromConfig builds the configured client wrapped with logging
// middleware, and for real providers with rate limiting and retry.
// Hook middleware is added by whoever attaches a hook. It returns
// ErrUnavailable when the capability is switched off or lacks credentials.
func NewFromConfig(ctx context.Context, opts Options, logger *zap.Logger) (Client, error) {
	var base Client
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderGemini:
		g, err := NewGeminiClient(ctx, opts.APIKey, opts.Model)
		if err != nil {
			return nil, err
		}
		return Wrap(g,
			WithLogging(logger),
			WithRetry(opts.MaxRetries+1, 500*time.Millisecond),
			WithRateLimit(opts.RPS, 1),
		), nil
	case ProviderFake:
		base = NewFakeClient()
	case ProviderNone:
		return nil, ErrUnavailable
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
	return Wrap(base, WithLogging(logger)), nil
}
