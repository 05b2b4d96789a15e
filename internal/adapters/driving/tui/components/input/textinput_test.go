package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
)

func TestNewQuestionInput(t *testing.T) {
	in := NewQuestionInput(styles.DefaultStyles())

	require.NotNil(t, in)
	assert.True(t, in.Focused())
	assert.Empty(t, in.Value())
	assert.Equal(t, 60, in.Width())
}

func TestNewQuestionInput_NilStyles(t *testing.T) {
	in := NewQuestionInput(nil)

	require.NotNil(t, in)
	assert.Contains(t, in.View(), "Ask:")
}

func TestQuestionInput_Typing(t *testing.T) {
	in := NewQuestionInput(nil)

	for _, r := range "what is go" {
		in, _ = in.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "what is go", in.Value())
}

func TestQuestionInput_SetValueAndReset(t *testing.T) {
	in := NewQuestionInput(nil)

	in.SetValue("hello")
	assert.Equal(t, "hello", in.Value())

	in.Reset()
	assert.Empty(t, in.Value())
}

func TestQuestionInput_FocusBlur(t *testing.T) {
	in := NewQuestionInput(nil)

	in.Blur()
	assert.False(t, in.Focused())

	in.Focus()
	assert.True(t, in.Focused())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	in := NewQuestionInput(nil)

	in.SetWidth(100)
	assert.Equal(t, 100, in.Width())

	in.SetWidth(10)
	assert.Equal(t, 10, in.Width())
}

func TestQuestionInput_Init(t *testing.T) {
	in := NewQuestionInput(nil)

	assert.NotNil(t, in.Init())
}
