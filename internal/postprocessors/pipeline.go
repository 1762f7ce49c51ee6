// Package postprocessors turns normalised documents into retrieval chunks.
package postprocessors

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
)

// Pipeline runs PostProcessors in order over a document. The first
// processor receives nil chunks and is expected to create them;
// later processors may reshape what they receive.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a pipeline that runs the processors in the
// order given.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process runs the document through every processor and returns the
// resulting chunks. A failing processor aborts the run with its name
// in the error.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, errors.New("document is nil")
	}

	var chunks []domain.Chunk
	for _, proc := range p.processors {
		var err error
		if chunks, err = proc.Process(ctx, doc, chunks); err != nil {
			return nil, fmt.Errorf("processor %s: %w", proc.Name(), err)
		}
	}
	return chunks, nil
}
