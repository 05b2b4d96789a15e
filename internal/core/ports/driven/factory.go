package driven

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// GeneratorFactory builds the LLMService for a generation backend variant.
// Each call reflects the settings current at that moment.
type GeneratorFactory interface {
	ForBackend(backend domain.GenerationBackend) (LLMService, error)
}
