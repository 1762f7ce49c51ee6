package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ansa-cli/internal/postprocessors/chunker"
)

// NewChunkingPipeline builds the standard pipeline for the given
// retrieval settings: a single chunker configured from the snapshot.
// Settings violations surface as domain.ErrConfiguration.
func NewChunkingPipeline(settings domain.RetrievalSettings) (driven.PostProcessorPipeline, error) {
	c, err := chunker.New(
		chunker.WithChunkSize(settings.ChunkSize),
		chunker.WithOverlap(settings.Overlap),
	)
	if err != nil {
		return nil, fmt.Errorf("building chunker: %w", err)
	}
	return NewPipeline(c), nil
}
