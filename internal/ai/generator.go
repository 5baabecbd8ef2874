package ai

import "context"

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Generator produces one text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}
