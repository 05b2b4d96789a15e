// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML key/value tables (config.toml, settings.toml)
//   - PromptStore: user-editable prompt templates
package file
