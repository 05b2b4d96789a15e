package services

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService resolves generation settings over a persisted ConfigStore.
// Reads fall back to the default table. Concurrent writes are last-write-wins.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator

	// onChange runs after every persisted write. Registered before use.
	onChange []func()
}

// NewSettingsService creates a settings service. aiValidator may be nil.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// OnChange registers fn to run after every successful Set or Reset. Answers
// depend on the generation settings, so the query service registers its
// cache here. Not safe to call once the service is in use.
func (s *SettingsService) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

func (s *SettingsService) changed() {
	for _, fn := range s.onChange {
		fn()
	}
}

// Get returns the stored value, else the default table value, else def.
func (s *SettingsService) Get(key string, def any) any {
	if v, ok := s.configStore.Get(key); ok {
		return v
	}
	if v, ok := domain.DefaultGenerationSettings()[key]; ok {
		return v
	}
	return def
}

// Set stores and persists value. Returns false if persisting failed.
func (s *SettingsService) Set(key string, value any) bool {
	if err := s.configStore.Set(key, value); err != nil {
		logger.Warn("settings: persist %s: %v", key, err)
		return false
	}
	logger.Debug("settings: %s = %v", key, value)
	s.changed()
	return true
}

// Reset replaces every stored setting with exactly the default table.
func (s *SettingsService) Reset() error {
	if err := s.configStore.ReplaceAll(domain.DefaultGenerationSettings()); err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	s.changed()
	return nil
}

// Float returns a numeric setting as float64.
func (s *SettingsService) Float(key string, def float64) float64 {
	if f, ok := asFloat(s.Get(key, nil)); ok {
		return f
	}
	return def
}

// Int returns a numeric setting as int.
func (s *SettingsService) Int(key string, def int) int {
	if f, ok := asFloat(s.Get(key, nil)); ok {
		return int(f)
	}
	return def
}

// String returns a string setting.
func (s *SettingsService) String(key string, def string) string {
	switch v := s.Get(key, nil).(type) {
	case string:
		return v
	case nil:
		return def
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns a boolean setting. The strings accepted by strconv.ParseBool
// are honoured.
func (s *SettingsService) Bool(key string, def bool) bool {
	switch v := s.Get(key, nil).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// Snapshot returns every effective setting, defaults included.
func (s *SettingsService) Snapshot() map[string]any {
	out := domain.DefaultGenerationSettings()
	maps.Copy(out, s.configStore.All())
	return out
}

// Params returns the local sampling parameters.
func (s *SettingsService) Params() domain.SamplingParams {
	return domain.SamplingParams{
		Temperature:   s.Float(domain.SettingTemperature, 0.1),
		NumPredict:    s.Int(domain.SettingNumPredict, 80),
		NumCtx:        s.Int(domain.SettingNumCtx, 512),
		NumThread:     s.Int(domain.SettingNumThread, domain.DefaultNumThread),
		TopK:          s.Int(domain.SettingTopK, 10),
		TopP:          s.Float(domain.SettingTopP, 0.5),
		RepeatPenalty: s.Float(domain.SettingRepeatPenalty, 1.1),
	}
}

// Backend resolves the generation backend currently selected.
func (s *SettingsService) Backend() domain.GenerationBackend {
	provider := domain.AIProvider(s.String(domain.SettingAPIProvider, ""))
	if !s.Bool(domain.SettingUseAPI, false) || !provider.IsExternalGenerator() {
		timeout := time.Duration(s.Int(domain.SettingOllamaTimeout, 0)) * time.Second
		if timeout <= 0 {
			timeout = domain.DefaultOllamaTimeout
		}
		return domain.LocalBackend{
			ModelName: s.String(domain.SettingModel, "llama3.2:1b"),
			Params:    s.Params(),
			Timeout:   timeout,
		}
	}

	model := s.String(domain.SettingAPIModel, "")
	if model == "" {
		model = domain.DefaultExternalModels()[provider]
	}
	return domain.ExternalBackend{
		Provider: provider,
		Credentials: domain.Credentials{
			APIKey:  s.String(domain.SettingAPIKey, ""),
			BaseURL: s.String(domain.SettingAPIURL, ""),
		},
		ModelName: model,
		Budget:    s.Budget(provider),
	}
}

// Budget returns the generation budget for provider: the built-in default,
// overridden field by field by api_budget.<provider>.* settings.
func (s *SettingsService) Budget(provider domain.AIProvider) domain.TokenBudget {
	budget, ok := domain.DefaultTokenBudgets()[provider]
	if !ok {
		budget = domain.DefaultTokenBudgets()[domain.AIProviderCustom]
	}
	budget.Temperature = s.Float(domain.BudgetSettingKey(provider, "temperature"), budget.Temperature)
	budget.MaxTokens = s.Int(domain.BudgetSettingKey(provider, "max_tokens"), budget.MaxTokens)
	return budget
}

// ValidateBackend pings the currently selected backend.
func (s *SettingsService) ValidateBackend() error {
	if s.aiValidator == nil {
		return nil
	}
	return s.aiValidator.ValidateBackend(s.Backend())
}

// asFloat converts TOML numbers, Go numbers and numeric strings.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
