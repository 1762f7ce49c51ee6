package services

import (
	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/logger"
)

// estimateTokens approximates the token count of a passage as
// ceil(bytes/4). The estimator only has to be consistent, not exact:
// the context budget bounds prompt growth, it is not a hard model
// limit.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// assembleContext packs the ranked candidates into a token budget,
// greedily and in rank order. A candidate that does not fit is skipped
// and assembly continues with the next one, so one oversized chunk
// cannot starve the bundle. Citations are recorded in inclusion order,
// parallel to the chunks.
//
// An empty bundle is a valid result meaning "no relevant context";
// the caller decides what to do with it.
func assembleContext(candidates []domain.RerankedCandidate, budget int) domain.ContextBundle {
	bundle := domain.ContextBundle{Budget: budget}

	remaining := budget
	for _, c := range candidates {
		tokens := estimateTokens(c.Chunk.Content)
		if tokens > remaining {
			logger.Debug("Skipping chunk %s: %d tokens > %d remaining", c.Chunk.ID, tokens, remaining)
			continue
		}
		bundle.Chunks = append(bundle.Chunks, c.Chunk)
		bundle.Citations = append(bundle.Citations, domain.Citation{
			Source:  c.Document.URI,
			Title:   c.Document.Title,
			Page:    c.Chunk.Page,
			Ordinal: c.Chunk.Ordinal,
			ChunkID: c.Chunk.ID,
		})
		bundle.TokensUsed += tokens
		remaining -= tokens
	}

	logger.Debug("Assembled context: %d/%d chunks, %d/%d tokens",
		len(bundle.Chunks), len(candidates), bundle.TokensUsed, budget)

	return bundle
}
