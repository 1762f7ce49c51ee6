package driven

import (
	"context"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
)

// VectorIndex persists chunk vectors with their metadata and serves
// top-K similarity search. It is the sole durable shared resource of
// the pipeline and the only writer of its own entries. The persisted
// store is checked for corruption at open and the error surfaced,
// never silently ignored.
//
// Concurrency: readers may proceed concurrently with unrelated writes.
// Each individual upsert batch is atomic; concurrent writers to the
// same chunk ID resolve last-write-wins. After any successful Upsert
// or DeleteBySource, subsequent Query calls from the same caller
// reflect the change.
type VectorIndex interface {
	// Upsert inserts or replaces one document's chunks by chunk ID.
	// Re-inserting an existing chunk ID overwrites atomically; no
	// caller ever observes a partially updated entry. Every chunk must
	// carry a unit-norm embedding of the index's fixed dimensionality.
	Upsert(ctx context.Context, doc domain.Document, chunks []domain.Chunk) error

	// Query returns up to k retrieval candidates for the query vector
	// under cosine similarity, in descending score order. Ties are
	// broken by chunk ID for determinism.
	Query(ctx context.Context, vector []float32, k int) ([]domain.RetrievalCandidate, error)

	// DeleteBySource removes all chunks belonging to a document.
	// Supports re-ingestion and collection clearing.
	DeleteBySource(ctx context.Context, documentID string) error

	// Clear removes every entry. Destructive and irreversible.
	Clear(ctx context.Context) error

	// Stats reports the durable state of the index. After a clean
	// restart with no ingestion in between, Stats returns identical
	// counts.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Close releases resources.
	Close() error
}
