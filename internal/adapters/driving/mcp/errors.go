// Package mcp exposes the question answering pipeline over the Model
// Context Protocol, so AI assistants can query and extend the knowledge base.
package mcp

import "errors"

var (
	// ErrMissingQueryService is returned when the query service is not provided.
	ErrMissingQueryService = errors.New("mcp: query service is required")

	// ErrIngestUnavailable is returned by ingestion tools when no ingest service is wired.
	ErrIngestUnavailable = errors.New("mcp: ingestion is not available")

	// ErrEmptyQuestion is returned by the ask tool for blank questions.
	ErrEmptyQuestion = errors.New("mcp: question cannot be empty")
)
