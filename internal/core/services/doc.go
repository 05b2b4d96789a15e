// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services depend only on domain and port interfaces; concrete adapters
// are wired in by cmd/sercha-rag.
package services
