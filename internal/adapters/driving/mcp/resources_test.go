package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleStatsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stats as JSON", func(t *testing.T) {
		mockIngest := &mockIngestService{
			stats: &domain.IndexStats{
				Records:         12,
				Backend:         "sqlite",
				Collection:      "documents",
				EmbeddingModel:  "nomic-embed-text",
				GenerationModel: "llama3.2",
				ChunkSize:       1000,
				TopK:            5,
				CacheEnabled:    true,
				CacheSize:       2,
			},
		}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Ingest: mockIngest})
		require.NoError(t, err)

		result, err := server.handleStatsResource(ctx, makeReadResourceRequest(StatsURI))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, StatsURI, result.Contents[0].URI)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var decoded domain.IndexStats
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &decoded))
		assert.Equal(t, *mockIngest.stats, decoded)
	})

	t.Run("not found without ingest service", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}})
		require.NoError(t, err)

		_, err = server.handleStatsResource(ctx, makeReadResourceRequest(StatsURI))

		assert.Error(t, err)
	})

	t.Run("returns stats error", func(t *testing.T) {
		mockIngest := &mockIngestService{err: errors.New("index offline")}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Ingest: mockIngest})
		require.NoError(t, err)

		_, err = server.handleStatsResource(ctx, makeReadResourceRequest(StatsURI))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "index offline")
	})
}
