package driven

import (
	"context"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
)

// Reranker scores (query, passage) pairs with a cross-encoder.
// A cross-encoder pass is strictly more expensive per item than the
// embedding similarity, which is why it only runs over the already
// narrowed candidate set rather than the full collection.
//
// Determinism: for identical input, the output ordering is stable.
// Ties are broken by the candidate's original similarity score, then
// by chunk ID.
//
// The reranker is optional infrastructure: when it is unreachable the
// caller degrades to similarity ordering and flags the degradation.
type Reranker interface {
	// Rerank returns the top-n candidates ordered by cross-encoder
	// relevance, length min(topN, len(candidates)).
	Rerank(ctx context.Context, query string, candidates []domain.RetrievalCandidate, topN int) ([]domain.RerankedCandidate, error)

	// ModelName returns the cross-encoder model name.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
