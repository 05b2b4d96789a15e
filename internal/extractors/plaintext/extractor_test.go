package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestExtractor_Extensions(t *testing.T) {
	assert.Equal(t, []string{".txt", ".text", ".log", ".csv"}, New().Extensions())
}

func TestExtractor_Extract(t *testing.T) {
	out, err := New().Extract(context.Background(), &domain.RawFile{
		Name:    "meeting_notes-2024.txt",
		Content: []byte("First line.\nSecond line."),
	})

	require.NoError(t, err)
	assert.Equal(t, "meeting notes 2024", out.Title)
	assert.Equal(t, "First line.\nSecond line.", out.Text)
}

func TestExtractor_Extract_StripsBOMAndInvalidUTF8(t *testing.T) {
	out, err := New().Extract(context.Background(), &domain.RawFile{
		Name:    "a.txt",
		Content: append([]byte("\xef\xbb\xbfhello "), 0xff),
	})

	require.NoError(t, err)
	assert.Equal(t, "hello \uFFFD", out.Text)
}

func TestExtractor_Extract_Empty(t *testing.T) {
	_, err := New().Extract(context.Background(), &domain.RawFile{Name: "a.txt", Content: []byte(" \n\t")})
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)

	_, err = New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
