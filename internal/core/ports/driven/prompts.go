package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer builds the answer-generation prompt.
	// The template expects two %s placeholders: the context, then the question.
	PromptAnswer = "answer"
)

// PromptStoreAware is implemented by services whose prompt templates can be
// customised after construction. Without a store they use built-in templates.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
