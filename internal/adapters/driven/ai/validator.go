package ai

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct {
	generators driven.GeneratorFactory
}

// NewConfigValidator creates a validator that builds generators with factory.
func NewConfigValidator(factory driven.GeneratorFactory) *ConfigValidator {
	return &ConfigValidator{generators: factory}
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(config)
}

// ValidateBackend builds the generator for backend and pings it.
func (v *ConfigValidator) ValidateBackend(backend domain.GenerationBackend) error {
	svc, err := v.generators.ForBackend(backend)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
