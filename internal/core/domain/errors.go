package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input, rejected
	// before any pipeline work begins.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates invalid tunable parameters.
	// Fatal to the call; never retried and never silently clamped.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrEmbeddingUnavailable indicates the embedding service failed or
	// is unreachable. One bounded retry with backoff is permitted before
	// this is surfaced.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generative model failed or
	// is unreachable. One bounded retry with backoff is permitted before
	// this is surfaced.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrRerankerUnavailable indicates the reranker failed or is
	// unreachable. The query pipeline degrades to similarity ordering
	// rather than failing; the degradation is reported on the Answer.
	ErrRerankerUnavailable = errors.New("reranker unavailable")

	// ErrServiceTimeout indicates an external call exceeded its deadline.
	// Surfaced immediately with no automatic retry.
	ErrServiceTimeout = errors.New("service timeout")

	// ErrIndexCorruption indicates the persisted vector index failed an
	// integrity check. Fatal; the index must not serve partial results.
	ErrIndexCorruption = errors.New("index corruption detected")

	// ErrUnsupportedFormat indicates no loader handles the document's
	// format. Collected per-document during ingestion, not fatal to
	// the batch.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)
