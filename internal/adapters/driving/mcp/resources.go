package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for Ansa resources.
const uriScheme = "ansa://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Index statistics: document and chunk counts, vector dimensions",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "settings",
		Name:        "settings",
		Description: "Current retrieval configuration (API keys omitted)",
		MIMEType:    "application/json",
	}, s.handleSettingsResource)
}

// handleStatsResource returns the index statistics as JSON.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Collection == nil {
		return jsonResource(req.Params.URI, "{}")
	}

	stats, err := s.ports.Collection.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling stats: %w", err)
	}
	return jsonResource(req.Params.URI, string(data))
}

// handleSettingsResource returns the settings snapshot as JSON with
// secrets stripped.
func (s *Server) handleSettingsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	_ = ctx
	if s.ports.Settings == nil {
		return jsonResource(req.Params.URI, "{}")
	}

	settings, err := s.ports.Settings.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	// Never leak credentials to MCP clients.
	info := struct {
		ChunkSize       int    `json:"chunk_size"`
		Overlap         int    `json:"overlap"`
		RetrievalK      int    `json:"retrieval_k"`
		RerankTopN      int    `json:"rerank_top_n"`
		ContextBudget   int    `json:"context_budget"`
		EmbeddingModel  string `json:"embedding_model"`
		GenerationModel string `json:"generation_model"`
		RerankerEnabled bool   `json:"reranker_enabled"`
		Dimensions      int    `json:"dimensions"`
	}{
		ChunkSize:       settings.Retrieval.ChunkSize,
		Overlap:         settings.Retrieval.Overlap,
		RetrievalK:      settings.Retrieval.RetrievalK,
		RerankTopN:      settings.Retrieval.RerankTopN,
		ContextBudget:   settings.Retrieval.ContextBudget,
		EmbeddingModel:  settings.Embedding.Model,
		GenerationModel: settings.Generation.Model,
		RerankerEnabled: settings.Reranker.Enabled,
		Dimensions:      settings.Dimensions,
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling settings: %w", err)
	}
	return jsonResource(req.Params.URI, string(data))
}

func jsonResource(uri, text string) (*mcp.ReadResourceResult, error) {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}, nil
}
