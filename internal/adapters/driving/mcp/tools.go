package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ansa-cli/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the natural-language question to answer from the indexed documents"`
	Session  string `json:"session,omitempty" jsonschema:"optional session identifier echoed back on the answer"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer            string           `json:"answer"`
	Citations         []CitationOutput `json:"citations,omitempty"`
	ContextChunksUsed int              `json:"context_chunks_used"`
	Degraded          bool             `json:"degraded,omitempty"`
	SessionID         string           `json:"session_id,omitempty"`
	LatencyMS         int64            `json:"latency_ms"`
}

// CitationOutput identifies one cited passage.
type CitationOutput struct {
	Source  string `json:"source"`
	Title   string `json:"title"`
	Page    int    `json:"page,omitempty"`
	Ordinal int    `json:"ordinal"`
	ChunkID string `json:"chunk_id"`
}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	TotalChunks    int `json:"total_chunks"`
	TotalDocuments int `json:"total_documents"`
	Dimensions     int `json:"dimensions"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question grounded in the indexed document collection, with citations",
	}, s.handleAsk)

	if s.ports.Collection != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "stats",
			Description: "Report document and chunk counts of the index",
		}, s.handleStats)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Answer(ctx, input.Question, driving.AnswerOptions{
		SessionID: input.Session,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:            answer.Text,
		ContextChunksUsed: answer.ContextChunksUsed,
		Degraded:          answer.Degraded,
		SessionID:         answer.SessionID,
		LatencyMS:         answer.Latency.Milliseconds(),
	}

	for _, c := range answer.Citations {
		output.Citations = append(output.Citations, CitationOutput{
			Source:  c.Source,
			Title:   c.Title,
			Page:    c.Page,
			Ordinal: c.Ordinal,
			ChunkID: c.ChunkID,
		})
	}

	return nil, output, nil
}

// handleStats handles the stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Collection.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	return nil, StatsOutput{
		TotalChunks:    stats.TotalChunks,
		TotalDocuments: stats.TotalDocuments,
		Dimensions:     stats.Dimensions,
	}, nil
}
