package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		provider AIProvider
		want     bool
	}{
		{AIProviderOllama, true},
		{AIProviderOpenAI, true},
		{AIProviderAnthropic, true},
		{AIProviderGemini, true},
		{AIProviderCustom, true},
		{AIProviderHugot, true},
		{"", false},
		{"cohere", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_Capabilities(t *testing.T) {
	tests := []struct {
		provider   AIProvider
		apiKey     bool
		local      bool
		embeddings bool
		external   bool
	}{
		{AIProviderOllama, false, true, true, false},
		{AIProviderOpenAI, true, false, true, true},
		{AIProviderAnthropic, true, false, false, true},
		{AIProviderGemini, true, false, false, true},
		{AIProviderCustom, false, false, false, true},
		{AIProviderHugot, false, true, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.apiKey, tt.provider.RequiresAPIKey())
			assert.Equal(t, tt.local, tt.provider.IsLocal())
			assert.Equal(t, tt.embeddings, tt.provider.SupportsEmbeddings())
			assert.Equal(t, tt.external, tt.provider.IsExternalGenerator())
		})
	}
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "Google Gemini (cloud)", AIProviderGemini.Description())
	assert.Equal(t, unknownDescription, AIProvider("other").Description())
}

func TestDefaultGenerationSettings(t *testing.T) {
	defaults := DefaultGenerationSettings()

	assert.Len(t, defaults, 8)
	assert.Equal(t, "llama3.2:1b", defaults[SettingModel])
	assert.Equal(t, 0.1, defaults[SettingTemperature])
	assert.Equal(t, 80, defaults[SettingNumPredict])
	assert.Equal(t, 512, defaults[SettingNumCtx])
	assert.Equal(t, 300, defaults[SettingContextLength])
	assert.Equal(t, 10, defaults[SettingTopK])
	assert.Equal(t, 0.5, defaults[SettingTopP])
	assert.Equal(t, 1.1, defaults[SettingRepeatPenalty])
}

func TestDefaultGenerationSettings_ReturnsFreshMap(t *testing.T) {
	first := DefaultGenerationSettings()
	first[SettingTemperature] = 0.9

	assert.Equal(t, 0.1, DefaultGenerationSettings()[SettingTemperature])
}

func TestDefaultTokenBudgets_CoverExternalProviders(t *testing.T) {
	budgets := DefaultTokenBudgets()
	for _, p := range []AIProvider{AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini, AIProviderCustom} {
		b, ok := budgets[p]
		assert.True(t, ok, "missing budget for %s", p)
		assert.Positive(t, b.MaxTokens)
	}
}

func TestBudgetSettingKey(t *testing.T) {
	assert.Equal(t, "api_budget.gemini.max_tokens", BudgetSettingKey(AIProviderGemini, "max_tokens"))
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		want     bool
	}{
		{"empty", EmbeddingSettings{}, false},
		{"ollama", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"hugot", EmbeddingSettings{Provider: AIProviderHugot}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"anthropic has no embeddings", EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.IsConfigured())
		})
	}
}

func TestEmbeddingDimensions(t *testing.T) {
	dims := EmbeddingDimensions()
	assert.Equal(t, 768, dims["nomic-embed-text"])
	assert.Equal(t, 384, dims[DefaultEmbeddingModels()[AIProviderHugot]])
}

func TestParseSettingValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"true", true},
		{"False", false},
		{"1", int64(1)},
		{"0.25", 0.25},
		{"llama3.2:1b", "llama3.2:1b"},
		{" 42 ", int64(42)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSettingValue(tt.raw))
		})
	}
}
