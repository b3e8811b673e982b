package llm

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient is a thin wrapper around the official genai client.
// Cross-cutting concerns (logging, hooks) are applied via Middleware.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		nil,
	)
	if err != nil {
		return "", err
	}
	txt := resp.Text()
	if strings.TrimSpace(txt) == "" {
		return "", ErrEmptyResponse
	}
	return txt, nil
}
