// pkg/llmclient/client.go
package llmclient

import "context"

// GenerationOptions tune a single generation call.
type GenerationOptions struct {
	ForceJSONFormat bool
	Temperature     float32
	MaxTokens       int
}

// GenerationRequest is a provider-agnostic prompt pair.
type GenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	Options      GenerationOptions
}

// Client generates text completions.
type Client interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
