package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	defer setupTestServices(t)()
	current.query.result = domain.QueryResult{
		Answer: "Go was designed at Google.",
		Sources: []domain.SourceSummary{
			{
				SourceID: "s1",
				Name:     "history.md",
				Type:     domain.SourceTypeFile,
				Chunks:   []domain.SourceExcerpt{{Ordinal: 0}, {Ordinal: 2}},
			},
			{
				SourceID: "s2",
				Name:     "Go (programming language)",
				Type:     domain.SourceTypeWeb,
				URL:      "https://example.com/go",
				Chunks:   []domain.SourceExcerpt{{Ordinal: 1}},
			},
		},
		SourcesCount: 2,
	}

	out, err := execute(t, "", "ask", "who", "made", "Go?")

	require.NoError(t, err)
	assert.Equal(t, []string{"who made Go?"}, current.query.questions)
	assert.Contains(t, out, "Go was designed at Google.")
	assert.Contains(t, out, "Sources (2):")
	assert.Contains(t, out, "[1] history.md (file)")
	assert.Contains(t, out, "chunks: 0, 2")
	assert.Contains(t, out, "https://example.com/go")
}

func TestAskCmd_NoSources(t *testing.T) {
	defer setupTestServices(t)()
	current.query.result = domain.QueryResult{Answer: domain.NoDocumentsAnswer}

	out, err := execute(t, "", "ask", "anything")

	require.NoError(t, err)
	assert.Contains(t, out, domain.NoDocumentsAnswer)
	assert.NotContains(t, out, "Sources")
}

func TestAskCmd_JSON(t *testing.T) {
	defer setupTestServices(t)()

	out, err := execute(t, "", "ask", "--json", "what is Go?")

	require.NoError(t, err)
	var result domain.QueryResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "what is Go?", result.Question)
	assert.Equal(t, "Go is a language.", result.Answer)
}

func TestAskCmd_BlankQuestion(t *testing.T) {
	defer setupTestServices(t)()

	_, err := execute(t, "", "ask", "   ")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "question cannot be empty")
	assert.Empty(t, current.query.questions)
}

func TestAskCmd_NotConfigured(t *testing.T) {
	defer setupTestServices(t)()
	SetServices(nil)

	_, err := execute(t, "", "ask", "hello")

	assert.ErrorIs(t, err, errNotConfigured)
}

func TestAskCmd_RequiresArgs(t *testing.T) {
	defer setupTestServices(t)()

	_, err := execute(t, "", "ask")

	assert.Error(t, err)
}
