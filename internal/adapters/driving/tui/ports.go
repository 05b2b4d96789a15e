// Package tui provides an interactive terminal user interface for asking
// questions about indexed documents.
package tui

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Query answers questions.
	Query driving.QueryService

	// Ingest reports index statistics. Optional.
	Ingest driving.IngestService
}

// NewPorts creates a Ports aggregate.
func NewPorts(query driving.QueryService, ingest driving.IngestService) *Ports {
	return &Ports{
		Query:  query,
		Ingest: ingest,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
