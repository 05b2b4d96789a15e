package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// LLMService generates answer text from a prompt.
//
// Implementations include:
//   - Ollama (local models, full sampling options)
//   - OpenAI and OpenAI-compatible endpoints
//   - Anthropic (Claude)
//   - Google Gemini
//
// Content-policy failures are reported with domain.ErrContentBlocked,
// empty output with domain.ErrEmptyResponse and unparseable bodies with
// domain.ErrMalformedResponse, so callers can tell "model refused" apart
// from "model unreachable".
type LLMService interface {
	// Generate produces a completion for the prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour. Backends build
// them with domain.GenerationBackend.Options.
type GenerateOptions = domain.GenerateOptions
