package driven

// ConfigStore provides access to a persisted key/value table.
// Implementations handle persistence (e.g., TOML files) and type conversion.
// Nested tables are addressed with dotted keys ("api_budget.openai.max_tokens").
type ConfigStore interface {
	// Get retrieves a value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string value.
	// Returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetInt retrieves an integer value.
	// Returns 0 if key doesn't exist or isn't a number.
	GetInt(key string) int

	// GetFloat retrieves a floating point value.
	// Returns 0 if key doesn't exist or isn't a number.
	GetFloat(key string) float64

	// GetBool retrieves a boolean value.
	// Returns false if key doesn't exist or isn't a boolean.
	GetBool(key string) bool

	// GetStringSlice retrieves a string slice value.
	// Returns nil if key doesn't exist or isn't a slice.
	GetStringSlice(key string) []string

	// All returns a copy of every stored key and value.
	All() map[string]any

	// Set stores a value. The value is persisted immediately.
	Set(key string, value any) error

	// ReplaceAll discards every stored value, stores values instead and
	// persists the result.
	ReplaceAll(values map[string]any) error

	// Save persists the current table to storage.
	Save() error

	// Load reads the table from storage.
	Load() error

	// Path returns the backing file path, or empty for in-memory stores.
	Path() string
}
