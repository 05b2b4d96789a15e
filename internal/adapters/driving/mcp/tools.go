package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the knowledge base"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer       string         `json:"answer"`
	Sources      []SourceOutput `json:"sources"`
	SourcesCount int            `json:"sources_count"`
}

// SourceOutput is one source the answer drew from.
type SourceOutput struct {
	SourceID string `json:"source_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	URL      string `json:"url,omitempty"`
	Chunks   []int  `json:"chunks"`
}

// IngestTextInput is the input schema for the ingest_text tool.
type IngestTextInput struct {
	Text     string `json:"text" jsonschema:"the document text to add"`
	SourceID string `json:"source_id,omitempty" jsonschema:"stable identifier of the source; generated when empty"`
	Name     string `json:"name,omitempty" jsonschema:"display name of the source"`
}

// IngestTextOutput is the output schema for the ingest_text tool.
type IngestTextOutput struct {
	SourceID      string `json:"source_id"`
	ChunksCreated int    `json:"chunks_created"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.inner, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the documents in the knowledge base",
	}, s.handleAsk)

	mcp.AddTool(s.inner, &mcp.Tool{
		Name:        "ingest_text",
		Description: "Add a text document to the knowledge base",
	}, s.handleIngestText)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, ErrEmptyQuestion
	}

	result := s.ports.Query.Query(ctx, input.Question)

	output := AskOutput{
		Answer:       result.Answer,
		Sources:      make([]SourceOutput, len(result.Sources)),
		SourcesCount: result.SourcesCount,
	}
	for i, src := range result.Sources {
		chunks := make([]int, len(src.Chunks))
		for j, c := range src.Chunks {
			chunks[j] = c.Ordinal
		}
		output.Sources[i] = SourceOutput{
			SourceID: src.SourceID,
			Name:     src.Name,
			Type:     src.Type.String(),
			URL:      src.URL,
			Chunks:   chunks,
		}
	}

	return nil, output, nil
}

// handleIngestText handles the ingest_text tool invocation.
func (s *Server) handleIngestText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestTextInput,
) (*mcp.CallToolResult, IngestTextOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestTextOutput{}, ErrIngestUnavailable
	}

	result, err := s.ports.Ingest.IngestText(ctx, domain.SourceDocument{
		SourceID: input.SourceID,
		Name:     input.Name,
		Type:     domain.SourceTypeText,
		Content:  input.Text,
	})
	if err != nil {
		return nil, IngestTextOutput{}, err
	}

	return nil, IngestTextOutput{
		SourceID:      result.SourceID,
		ChunksCreated: result.ChunksCreated,
	}, nil
}
