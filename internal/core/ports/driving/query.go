package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// QueryService answers questions from the indexed documents.
type QueryService interface {
	// Query embeds the question, retrieves context, and generates an answer.
	// It never fails: errors are reported in the result's Answer.
	Query(ctx context.Context, question string) domain.QueryResult

	// ClearCache drops every cached result.
	ClearCache()

	// CacheSize returns the number of live cached results.
	CacheSize() int
}

// AnswerGenerator turns a question and retrieved context into answer text.
type AnswerGenerator interface {
	// Generate never fails: every failure mode becomes a user-facing message.
	Generate(ctx context.Context, question, context string) string
}
