// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	hugotembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/hugot"
	ollamaembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Ensure GeneratorFactory implements the interface.
var _ driven.GeneratorFactory = (*GeneratorFactory)(nil)

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check embedding settings in config.toml",
			domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Check embedding settings in config.toml",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service for settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderHugot:
		svc, err := hugotembed.NewEmbeddingService(hugotembed.Config{
			Model:    settings.Model,
			ModelDir: settings.ModelDir,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// GeneratorFactory builds LLM services for generation backends.
type GeneratorFactory struct {
	ollamaURL string
}

// NewGeneratorFactory creates a factory. ollamaURL is the local model server
// used by LocalBackend.
func NewGeneratorFactory(ollamaURL string) *GeneratorFactory {
	return &GeneratorFactory{ollamaURL: ollamaURL}
}

// ForBackend returns a fresh LLM service for backend.
func (f *GeneratorFactory) ForBackend(backend domain.GenerationBackend) (driven.LLMService, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: no generation backend", domain.ErrInvalidInput)
	}
	return f.createLLM(backend.Target())
}

// createLLM creates the LLM service serving t.
func (f *GeneratorFactory) createLLM(t domain.GenerationTarget) (driven.LLMService, error) {
	var (
		svc driven.LLMService
		err error
	)

	switch t.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: f.ollamaURL,
			Model:   t.Model,
			Timeout: t.Timeout,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err = asLLM(openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  t.Credentials.APIKey,
			BaseURL: t.Credentials.BaseURL,
			Model:   t.Model,
		}))

	case domain.AIProviderCustom:
		if t.Credentials.BaseURL == "" {
			return nil, fmt.Errorf("%w: custom provider requires api_url", domain.ErrInvalidInput)
		}
		svc, err = asLLM(openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  t.Credentials.APIKey,
			BaseURL: t.Credentials.BaseURL,
			Model:   t.Model,
			Name:    string(domain.AIProviderCustom),
		}))

	case domain.AIProviderAnthropic:
		svc, err = asLLM(anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  t.Credentials.APIKey,
			BaseURL: t.Credentials.BaseURL,
			Model:   t.Model,
		}))

	case domain.AIProviderGemini:
		svc, err = asLLM(geminillm.NewLLMService(context.Background(), geminillm.Config{
			APIKey:  t.Credentials.APIKey,
			BaseURL: t.Credentials.BaseURL,
			Model:   t.Model,
		}))

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", t.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("create %s generator: %w", t.Provider, err)
	}
	return svc, nil
}

// asLLM converts a typed constructor result so a failed construction yields
// a nil interface rather than a typed nil.
func asLLM[T driven.LLMService](svc T, err error) (driven.LLMService, error) {
	if err != nil {
		return nil, err
	}
	return svc, nil
}
