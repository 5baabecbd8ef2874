// Package ollama provides the Ollama-backed text generator. Ollama is a
// local LLM runtime, the default backend for on-premises screening.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const defaultEndpoint = "http://localhost:11434"

// Generator wraps the Ollama API client behind the ai.Generator interface.
type Generator struct {
	client      *api.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewGenerator creates a generator talking to the Ollama server at endpoint
// (e.g. "http://localhost:11434"). An unparseable endpoint falls back to the
// default local server.
func NewGenerator(endpoint, model string, maxTokens int) *Generator {
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		parsed, _ = url.Parse(defaultEndpoint)
	}

	return &Generator{
		client:      api.NewClient(parsed, http.DefaultClient),
		model:       model,
		maxTokens:   maxTokens,
		temperature: 0.7,
	}
}

// Generate sends the prompt to Ollama and returns the full non-streamed reply.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("ollama generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	stream := false
	req := &api.GenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": g.temperature,
			"num_predict": g.maxTokens,
		},
	}

	var builder strings.Builder
	err := g.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		builder.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("ollama returned empty response")
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
