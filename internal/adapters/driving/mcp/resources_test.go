package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleStatsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stats JSON", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Answer:     &mockAnswerService{},
			Collection: &mockCollectionService{stats: domain.IndexStats{TotalChunks: 9, TotalDocuments: 2, Dimensions: 768}},
		})
		require.NoError(t, err)

		result, err := server.handleStatsResource(ctx, readRequest(uriScheme+"stats"))
		require.NoError(t, err)

		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, `"total_chunks": 9`)
	})

	t.Run("empty object without a collection service", func(t *testing.T) {
		server, err := NewServer(&Ports{Answer: &mockAnswerService{}})
		require.NoError(t, err)

		result, err := server.handleStatsResource(ctx, readRequest(uriScheme+"stats"))
		require.NoError(t, err)
		assert.Equal(t, "{}", result.Contents[0].Text)
	})
}

func TestServer_handleSettingsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("omits credentials", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
			APIKey:   "sk-supersecret",
		}

		server, err := NewServer(&Ports{
			Answer:   &mockAnswerService{},
			Settings: &mockSettingsService{settings: settings},
		})
		require.NoError(t, err)

		result, err := server.handleSettingsResource(ctx, readRequest(uriScheme+"settings"))
		require.NoError(t, err)

		text := result.Contents[0].Text
		assert.Contains(t, text, `"embedding_model": "text-embedding-3-small"`)
		assert.Contains(t, text, `"chunk_size": 600`)
		assert.NotContains(t, text, "sk-supersecret")
	})

	t.Run("surfaces settings errors", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Answer:   &mockAnswerService{},
			Settings: &mockSettingsService{err: domain.ErrConfiguration},
		})
		require.NoError(t, err)

		_, err = server.handleSettingsResource(ctx, readRequest(uriScheme+"settings"))
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}
