package domain

import (
	"strconv"
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderCustom is any OpenAI-compatible endpoint.
	AIProviderCustom AIProvider = "custom"

	// AIProviderHugot runs a sentence-transformer model in-process.
	AIProviderHugot AIProvider = "hugot"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic,
		AIProviderGemini, AIProviderCustom, AIProviderHugot:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs on the local machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHugot
}

// SupportsEmbeddings returns true if the provider can produce embeddings.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderHugot
}

// IsExternalGenerator returns true if the provider is a hosted generation API.
func (p AIProvider) IsExternalGenerator() bool {
	switch p {
	case AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini, AIProviderCustom:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderCustom:
		return "OpenAI-compatible endpoint"
	case AIProviderHugot:
		return "Sentence transformer (in-process)"
	default:
		return unknownDescription
	}
}

// Generation setting keys. The first eight form the default table.
const (
	SettingModel         = "model"
	SettingTemperature   = "temperature"
	SettingNumPredict    = "num_predict"
	SettingNumCtx        = "num_ctx"
	SettingContextLength = "context_length"
	SettingTopK          = "top_k"
	SettingTopP          = "top_p"
	SettingRepeatPenalty = "repeat_penalty"

	SettingNumThread     = "num_thread"
	SettingOllamaTimeout = "ollama_timeout"
	SettingTopKResults   = "top_k_results"

	SettingUseAPI      = "use_api"
	SettingAPIProvider = "api_provider"
	SettingAPIKey      = "api_key"
	SettingAPIURL      = "api_url"
	SettingAPIModel    = "api_model"
)

// Fallbacks for generation settings outside the default table.
const (
	DefaultNumThread     = 4
	DefaultOllamaTimeout = 120 * time.Second
	DefaultTopKResults   = 5
)

// DefaultGenerationSettings returns the default settings table.
// A fresh map is returned on every call.
func DefaultGenerationSettings() map[string]any {
	return map[string]any{
		SettingModel:         "llama3.2:1b",
		SettingTemperature:   0.1,
		SettingNumPredict:    80,
		SettingNumCtx:        512,
		SettingContextLength: 300,
		SettingTopK:          10,
		SettingTopP:          0.5,
		SettingRepeatPenalty: 1.1,
	}
}

// TokenBudget is the fixed generation budget applied to an external provider.
// It overrides the local sampling settings.
type TokenBudget struct {
	Temperature float64
	MaxTokens   int
}

// DefaultTokenBudgets returns the built-in budget per external provider.
func DefaultTokenBudgets() map[AIProvider]TokenBudget {
	return map[AIProvider]TokenBudget{
		AIProviderOpenAI:    {Temperature: 0.3, MaxTokens: 500},
		AIProviderAnthropic: {Temperature: 0.3, MaxTokens: 500},
		// Gemini 2.5 spends part of the budget on thinking tokens.
		AIProviderGemini: {Temperature: 0.3, MaxTokens: 2048},
		AIProviderCustom: {Temperature: 0.3, MaxTokens: 500},
	}
}

// BudgetSettingKey returns the settings key overriding one budget field,
// e.g. "api_budget.gemini.max_tokens".
func BudgetSettingKey(p AIProvider, field string) string {
	return "api_budget." + string(p) + "." + field
}

// DefaultExternalModels returns the model used when api_model is unset.
func DefaultExternalModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (Ollama, OpenAI-compatible).
	BaseURL string

	// APIKey is the API key (OpenAI).
	APIKey string

	// ModelDir is where in-process models are downloaded (hugot).
	ModelDir string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderHugot:  "sentence-transformers/all-MiniLM-L6-v2",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Sentence transformers
		"sentence-transformers/all-MiniLM-L6-v2":                      384,
		"sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2": 384,
	}
}

// ParseSettingValue converts a command-line value to the type it looks like:
// bool, int, float, else string.
func ParseSettingValue(raw string) any {
	raw = strings.TrimSpace(raw)
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
