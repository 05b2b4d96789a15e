package domain

import "time"

// BackendKind discriminates the generation backend variants.
type BackendKind string

const (
	// BackendLocal generates with a local model server.
	BackendLocal BackendKind = "local"

	// BackendExternal generates with a hosted API.
	BackendExternal BackendKind = "external"
)

// GenerationBackend is either a LocalBackend or an ExternalBackend.
// The interface is sealed; no other implementations exist.
type GenerationBackend interface {
	Kind() BackendKind
	Model() string

	// Target names the server the backend generates with.
	Target() GenerationTarget

	// Options returns the per-request generation options of the variant.
	Options() GenerateOptions

	isGenerationBackend()
}

// GenerationTarget is the model server a backend talks to.
type GenerationTarget struct {
	Provider    AIProvider
	Model       string
	Credentials Credentials

	// Timeout bounds a whole generation; zero leaves it to the caller.
	Timeout time.Duration
}

// GenerateOptions configures text generation behaviour.
// Zero values mean "use the backend default". Hosted providers only read
// MaxTokens, Temperature and StopWords.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// TopK limits sampling to the K most likely tokens.
	TopK int

	// TopP is the nucleus sampling threshold.
	TopP float64

	// RepeatPenalty discourages repeated tokens.
	RepeatPenalty float64

	// NumCtx is the context window size in tokens.
	NumCtx int

	// NumThread is the number of CPU threads a local model may use.
	NumThread int

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// SamplingParams are the local-model knobs pulled from settings.
type SamplingParams struct {
	Temperature   float64
	NumPredict    int
	NumCtx        int
	NumThread     int
	TopK          int
	TopP          float64
	RepeatPenalty float64
}

// LocalBackend generates with the local model server using user sampling settings.
type LocalBackend struct {
	ModelName string
	Params    SamplingParams
	Timeout   time.Duration
}

// Kind implements GenerationBackend.
func (LocalBackend) Kind() BackendKind { return BackendLocal }

// Model implements GenerationBackend.
func (b LocalBackend) Model() string { return b.ModelName }

// Target implements GenerationBackend.
func (b LocalBackend) Target() GenerationTarget {
	return GenerationTarget{Provider: AIProviderOllama, Model: b.ModelName, Timeout: b.Timeout}
}

// Options passes every sampling setting through.
func (b LocalBackend) Options() GenerateOptions {
	return GenerateOptions{
		MaxTokens:     b.Params.NumPredict,
		Temperature:   b.Params.Temperature,
		TopK:          b.Params.TopK,
		TopP:          b.Params.TopP,
		RepeatPenalty: b.Params.RepeatPenalty,
		NumCtx:        b.Params.NumCtx,
		NumThread:     b.Params.NumThread,
	}
}

func (LocalBackend) isGenerationBackend() {}

// Credentials authenticate against an external provider.
type Credentials struct {
	APIKey  string
	BaseURL string
}

// ExternalBackend generates with a hosted provider using its fixed budget.
type ExternalBackend struct {
	Provider    AIProvider
	Credentials Credentials
	ModelName   string
	Budget      TokenBudget
}

// Kind implements GenerationBackend.
func (ExternalBackend) Kind() BackendKind { return BackendExternal }

// Model implements GenerationBackend.
func (b ExternalBackend) Model() string { return b.ModelName }

// Target implements GenerationBackend.
func (b ExternalBackend) Target() GenerationTarget {
	return GenerationTarget{Provider: b.Provider, Model: b.ModelName, Credentials: b.Credentials}
}

// Options applies the provider budget; sampling settings are ignored.
func (b ExternalBackend) Options() GenerateOptions {
	return GenerateOptions{
		MaxTokens:   b.Budget.MaxTokens,
		Temperature: b.Budget.Temperature,
	}
}

func (ExternalBackend) isGenerationBackend() {}
