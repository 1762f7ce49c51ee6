// Package chunker provides an overlap-aware text chunking processor.
//
// Chunks are fixed-size character windows with a configured overlap
// between consecutive chunks. Chunk ends prefer sentence or paragraph
// breaks within a tolerance window before falling back to a hard cut,
// so key facts are less likely to be severed mid-sentence. Because the
// next chunk always starts exactly overlap characters before the
// previous chunk's end, the overlap invariant holds regardless of
// boundary adjustment.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 600

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 80

// Processor splits document content into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
	tolerance int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithBoundaryTolerance sets how far before the hard chunk end the
// processor may pull a boundary back to land on a sentence break.
func WithBoundaryTolerance(tolerance int) Option {
	return func(p *Processor) {
		p.tolerance = tolerance
	}
}

// New creates a new chunker processor with the given options.
// The overlap must be strictly less than the chunk size; violations
// fail with domain.ErrConfiguration rather than being adjusted.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
		tolerance: -1,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk_size %d must be positive", domain.ErrConfiguration, p.chunkSize)
	}
	if p.overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", domain.ErrConfiguration, p.overlap)
	}
	if p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be less than chunk_size %d",
			domain.ErrConfiguration, p.overlap, p.chunkSize)
	}

	if p.tolerance < 0 {
		p.tolerance = p.chunkSize / 6
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks covering the entire
// input with no gaps. Consecutive chunks from the same document overlap
// by exactly the configured overlap, except possibly the final pair
// when the document remainder is short. Each chunk records its exact
// rune offsets for citation purposes.
//
// Input chunks are ignored; this processor creates new chunks.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		// Empty content produces no chunks. The caller reports this,
		// it is not a failure.
		return nil, nil
	}

	runes := []rune(doc.Content)
	total := len(runes)

	estimated := total/(p.chunkSize-p.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	prevEnd := 0

	for ordinal := 0; ; ordinal++ {
		end := start + p.chunkSize
		if end >= total {
			end = total
		} else {
			end = p.adjustBoundary(runes, start, end)
		}

		overlap := 0
		if ordinal > 0 {
			overlap = prevEnd - start
		}

		chunks = append(chunks, domain.Chunk{
			ID:          domain.NewChunkID(doc.ID, ordinal),
			DocumentID:  doc.ID,
			Content:     string(runes[start:end]),
			Ordinal:     ordinal,
			StartOffset: start,
			EndOffset:   end,
			Overlap:     overlap,
			Page:        doc.PageAt(start),
			Metadata:    make(map[string]any),
		})

		if end >= total {
			break
		}
		prevEnd = end
		start = end - p.overlap
	}

	return chunks, nil
}

// adjustBoundary pulls the chunk end back to the nearest sentence or
// paragraph break within the tolerance window, nearest to the hard end
// first. Falls back to the hard end when no break is found or when
// moving would stall progress.
func (p *Processor) adjustBoundary(runes []rune, start, hardEnd int) int {
	limit := hardEnd - p.tolerance
	// Never cut the chunk down to (or below) the overlapped region,
	// or the next chunk would not advance.
	if floor := start + p.overlap + 1; limit < floor {
		limit = floor
	}
	if limit >= hardEnd {
		return hardEnd
	}

	for i := hardEnd - 1; i >= limit; i-- {
		switch runes[i] {
		case '\n':
			return i + 1
		case '.', '!', '?':
			if i+1 < len(runes) && isSpace(runes[i+1]) {
				return i + 1
			}
		}
	}
	return hardEnd
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
