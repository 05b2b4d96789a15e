package driving

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// SettingsService resolves generation settings.
// Reads fall back to the built-in default table; writes persist immediately.
type SettingsService interface {
	// Get returns the stored value, else the default table value, else def.
	Get(key string, def any) any

	// Set stores and persists a value. Returns false if persisting failed.
	Set(key string, value any) bool

	// Reset restores exactly the default table and persists it.
	Reset() error

	// Float returns a numeric setting as float64.
	Float(key string, def float64) float64

	// Int returns a numeric setting as int.
	Int(key string, def int) int

	// String returns a string setting.
	String(key string, def string) string

	// Bool returns a boolean setting.
	Bool(key string, def bool) bool

	// Snapshot returns every effective setting, defaults included.
	Snapshot() map[string]any

	// Backend resolves the generation backend currently selected.
	Backend() domain.GenerationBackend

	// Budget returns the generation budget applied to an external provider.
	Budget(provider domain.AIProvider) domain.TokenBudget

	// ValidateBackend pings the currently selected backend.
	ValidateBackend() error
}
